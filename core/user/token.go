package user

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/observa/core"
)

const (
	jwtAudience = "Observa"
	// SigningMethod is the only algorithm tokens are signed and accepted with.
	SigningMethod = "HS256"
)

var errMissingSubject = errors.New("token has no subject")

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name       string `json:"name,omitempty"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
	TeacherID  string `json:"teacher_id,omitempty"`
}

func NewClaims(usr User, conf *core.Config) *Claims {
	now := nowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  jwtAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:       usr.Name,
		Role:       usr.Role,
		Department: usr.Department,
		TeacherID:  usr.TeacherID,
	}
}

// RequestContext is the identity the claims authenticate.
func (c Claims) RequestContext() (RequestContext, error) {
	if core.CleanString(c.Subject) == "" {
		return RequestContext{}, errMissingSubject
	}
	return RequestContext{
		UserID:     c.Subject,
		Role:       c.Role,
		Department: c.Department,
		TeacherID:  c.TeacherID,
	}, nil
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(SigningMethod), claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// ParseToken verifies a signed token and returns its Claims.
func ParseToken(tokenStr, secretKey string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != SigningMethod {
			return nil, errors.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parsing token")
	}
	return claims, nil
}

// TokenExpiry is the expiration time of the claims, in UTC.
func (c Claims) TokenExpiry() time.Time {
	return time.Unix(c.ExpiresAt, 0).UTC()
}
