package user

import (
	"crypto/sha256"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

// PasswordResetPurpose scopes reset tokens: a token signed for another purpose never verifies.
const PasswordResetPurpose = "reset-password"

var (
	NowFunc = time.Now // mockable

	// errors
	ErrTokenInvalid = errors.New("invalid or broken reset link")
	ErrTokenExpired = errors.New("the reset link has expired")
)

type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// tokenSigner issues and redeems signed, timestamped password reset tokens.
// Tokens are not single-use: they stay valid until they expire.
type tokenSigner struct {
	key     []byte
	timeout time.Duration
}

func newTokenSigner(secretKey string, timeout time.Duration) tokenSigner {
	key := sha256.Sum256([]byte(PasswordResetPurpose + secretKey))
	return tokenSigner{key: key[:], timeout: timeout}
}

func (ts tokenSigner) issue(userID string) (string, error) {
	claims := resetClaims{
		Purpose: PasswordResetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(NowFunc()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return token, nil
}

// redeem returns the user ID embedded in the token.
// A token is valid iff its signature and purpose match and its age is at most the timeout.
func (ts tokenSigner) redeem(token string) (string, error) {
	if token == "" {
		return "", ErrTokenInvalid
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(), // age is checked against NowFunc below
	)
	claims := new(resetClaims)
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return ts.key, nil
	}); err != nil {
		return "", ErrTokenInvalid
	}
	if claims.Purpose != PasswordResetPurpose || claims.Subject == "" || claims.IssuedAt == nil {
		return "", ErrTokenInvalid
	}

	age := NowFunc().Unix() - claims.IssuedAt.Unix()
	if age > int64(ts.timeout/time.Second) {
		return "", ErrTokenExpired
	}
	return claims.Subject, nil
}
