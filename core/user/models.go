package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/elearn/core"
)

// Roles
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
)

var AllRoles = []string{RoleStudent, RoleInstructor}

type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Role         string    `json:"role"`
	Avatar       string    `json:"avatar,omitempty"` // filename of the uploaded profile picture
	CreatedAt    time.Time `json:"created_at"`       // UTC
	UpdatedAt    time.Time `json:"updated_at"`       // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// FullName returns "First Last", trimmed when one of the parts is missing.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) IsStudent() bool    { return u.Role == RoleStudent }
func (u User) IsInstructor() bool { return u.Role == RoleInstructor }

// NewUser contains information needed to register a new User.
type NewUser struct {
	FirstName       string `form:"first_name" validate:"required,notblank"`
	LastName        string `form:"last_name" validate:"required,notblank"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,pwdminlen,pwdmaxlen"`
	PasswordConfirm string `form:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `form:"role" validate:"omitempty,userrole"`
}

func (nu *NewUser) Clean() {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	if nu.Role == "" {
		nu.Role = RoleStudent
	}
}

// UpdateUser defines what information may be provided to edit a profile.
// A blank Password keeps the current one.
type UpdateUser struct {
	FirstName string `form:"first_name" validate:"required,notblank"`
	LastName  string `form:"last_name" validate:"required,notblank"`
	Email     string `form:"email" validate:"required,email"`
	Password  string `form:"password" validate:"omitempty,pwdminlen,pwdmaxlen"`
}

func (uu *UpdateUser) Clean() {
	uu.FirstName = core.CleanString(uu.FirstName)
	uu.LastName = core.CleanString(uu.LastName)
	uu.Email = core.CleanString(uu.Email, true /* lower */)
}

type ResetPassword struct {
	Token           string `form:"token" validate:"required"`
	Password        string `form:"password" validate:"required,pwdminlen,pwdmaxlen"`
	PasswordConfirm string `form:"confirm_password" validate:"required,eqfield=Password"`
}

type GetFilter struct {
	ID    string
	Email string
}

type QueryFilter struct {
	IDs  []string
	Role string
}
