package user

import (
	"context"
	"io"
	"net/mail"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidFilename    = errors.New("invalid file name")
)

type (
	Repository interface {
		// CheckEmailUniqueness returns ErrEmailExists if another user than excludedUsers owns email.
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo       Repository
		mailSvc    core.EmailService
		files      core.FileStore
		tokens     tokenSigner
		conf       *core.Config
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(
	repo Repository,
	mailSvc core.EmailService,
	files core.FileStore,
	conf *core.Config,
	validate *validator.Validate,
	translator ut.Translator,
) *Service {
	return &Service{
		repo:       repo,
		mailSvc:    mailSvc,
		files:      files,
		tokens:     newTokenSigner(conf.SecretKey, conf.PasswordResetTimeout),
		conf:       conf,
		validate:   validate,
		translator: translator,
	}
}

func (svc *Service) validateStruct(s interface{}) error {
	return core.Translate(svc.validate.Struct(s), svc.translator)
}

// Register validates nu and creates a new User.
// Returns a *core.ValidationError for bad input and ErrEmailExists for a taken email.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if err := svc.validateStruct(nu); err != nil {
		return User{}, err
	}
	if err := svc.repo.CheckEmailUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Email:     nu.Email,
		Role:      nu.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	return usr, errors.Wrap(err, "creating user")
}

// Authenticate returns the User owning email if pwd matches, ErrInvalidCredentials otherwise.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	if id == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if email == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{Email: email})
}

func (svc *Service) QueryByIDs(ctx context.Context, ids ...string) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return svc.repo.QueryUsers(ctx, QueryFilter{IDs: ids})
}

// UpdateProfile edits the names, email and optionally the password of User id.
func (svc *Service) UpdateProfile(ctx context.Context, id string, uu UpdateUser) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	uu.Clean()
	if err = svc.validateStruct(uu); err != nil {
		return User{}, err
	}
	if err = svc.repo.CheckEmailUniqueness(ctx, uu.Email, usr); err != nil {
		return User{}, err
	}

	usr.FirstName = uu.FirstName
	usr.LastName = uu.LastName
	usr.Email = uu.Email
	usr.UpdatedAt = time.Now().UTC()
	if uu.Password != "" {
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "updating user")
}

// SetAvatar stores the uploaded picture and records its reference on User id.
func (svc *Service) SetAvatar(ctx context.Context, id, filename string, r io.Reader) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	filename = core.SecureFilename(filename)
	if filename == "" {
		return User{}, core.NewValidationError(ErrInvalidFilename, core.FieldError{Field: "profile_pic", Error: ErrInvalidFilename.Error()})
	}
	ref, err := svc.files.Save(ctx, filename, r)
	if err != nil {
		return User{}, errors.Wrap(err, "saving profile picture")
	}

	usr.Avatar = ref
	usr.UpdatedAt = time.Now().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "updating user")
}

// SetPassword replaces the password of the User owning email, bypassing the password policy.
func (svc *Service) SetPassword(ctx context.Context, email, pwd string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}

// MakeResetToken issues a password reset token for usr.
func (svc *Service) MakeResetToken(usr User) (string, error) {
	return svc.tokens.issue(usr.ID)
}

// VerifyResetToken returns the User a reset token was issued for.
// Returns ErrTokenExpired or ErrTokenInvalid when the token cannot be redeemed.
func (svc *Service) VerifyResetToken(ctx context.Context, token string) (User, error) {
	id, err := svc.tokens.redeem(token)
	if err != nil {
		return User{}, err
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrTokenInvalid
		}
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	return usr, nil
}

type resetMailData struct {
	Name     string
	Token    string
	ValidFor string
}

// RequestPasswordReset emails a reset link to the User owning email.
// Returns ErrNotFound when no account uses that email.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := svc.MakeResetToken(usr)
	if err != nil {
		return err
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject:      "Password Reset Request",
		TemplateName: "password_reset",
		TemplateData: resetMailData{
			Name:     usr.FirstName,
			Token:    token,
			ValidFor: svc.conf.PasswordResetTimeout.String(),
		},
	}
	return errors.Wrap(svc.mailSvc.SendMessages(msg), "sending password reset email")
}

// ResetPassword redeems the token then sets the new password.
// Token errors take precedence over password validation errors.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) (User, error) {
	usr, err := svc.VerifyResetToken(ctx, rp.Token)
	if err != nil {
		return User{}, err
	}
	if err = svc.validateStruct(rp); err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "updating user")
}
