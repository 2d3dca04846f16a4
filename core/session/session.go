package session

import (
	"github.com/pkg/errors"

	"github.com/trezcool/elearn/core/user"
)

// DefaultAvatar is shown for users who never uploaded a profile picture.
const DefaultAvatar = "default.jpg"

// Notice levels
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelDanger  = "danger"
)

// Identity fields that can be re-synced with RefreshField.
const (
	FieldName   = "name"
	FieldAvatar = "avatar"
)

var (
	// errors
	ErrNotFound     = errors.New("session not found")
	ErrUnauthorized = errors.New("login required")
	ErrForbidden    = errors.New("role not allowed")
	ErrUnknownField = errors.New("unknown identity field")
)

// Identity is the snapshot of the logged in User taken at login.
type Identity struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Notice is a one-time message shown on the next rendered page.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Session is the per-visitor state, bound to the browser through a cookie holding its ID.
type Session struct {
	ID       string    `json:"-"`
	Identity *Identity `json:"identity,omitempty"`
	Notices  []Notice  `json:"notices,omitempty"`

	stored   bool // loaded from or saved to a Store
	modified bool
	renew    bool // a new ID must be issued on save
}

// Start logs usr in. The session ID is renewed on save.
func (s *Session) Start(usr user.User) {
	avatar := usr.Avatar
	if avatar == "" {
		avatar = DefaultAvatar
	}
	s.Identity = &Identity{
		UserID: usr.ID,
		Role:   usr.Role,
		Name:   usr.FirstName,
		Avatar: avatar,
	}
	s.renew = true
	s.modified = true
}

// CurrentIdentity returns the logged in identity, if any.
func (s *Session) CurrentIdentity() (Identity, bool) {
	if s == nil || s.Identity == nil {
		return Identity{}, false
	}
	return *s.Identity, true
}

// End logs out and drops every pending notice.
func (s *Session) End() {
	s.Identity = nil
	s.Notices = nil
	s.renew = true
	s.modified = true
}

// RefreshField updates a single Identity field. It is a no-op on anonymous sessions.
func (s *Session) RefreshField(field, value string) error {
	if s.Identity == nil {
		return nil
	}
	switch field {
	case FieldName:
		s.Identity.Name = value
	case FieldAvatar:
		if value == "" {
			value = DefaultAvatar
		}
		s.Identity.Avatar = value
	default:
		return errors.Wrap(ErrUnknownField, field)
	}
	s.modified = true
	return nil
}

func (s *Session) AddNotice(level, msg string) {
	s.Notices = append(s.Notices, Notice{Level: level, Message: msg})
	s.modified = true
}

// PopNotices returns and clears the pending notices.
func (s *Session) PopNotices() []Notice {
	notices := s.Notices
	if len(notices) > 0 {
		s.Notices = nil
		s.modified = true
	}
	if notices == nil {
		notices = []Notice{}
	}
	return notices
}

// IsEmpty reports whether there is nothing worth persisting.
func (s *Session) IsEmpty() bool {
	return s.Identity == nil && len(s.Notices) == 0
}

func (s *Session) Modified() bool { return s.modified }

// Authorize checks that sess is logged in and, if role is set, that it has that role.
// Returns ErrUnauthorized or ErrForbidden.
func Authorize(sess *Session, role string) error {
	idt, ok := sess.CurrentIdentity()
	if !ok {
		return ErrUnauthorized
	}
	if role != "" && idt.Role != role {
		return ErrForbidden
	}
	return nil
}
