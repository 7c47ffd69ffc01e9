package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/donr-app/go-services/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// HSVerifier verifies HS256 tokens signed with a shared secret. Used for
// development deployments and tests where no OIDC issuer is available; the
// token shape mirrors what the identity provider would issue (sub + email).
type HSVerifier struct {
	secret []byte
}

func NewHSVerifier(secret string) *HSVerifier {
	return &HSVerifier{secret: []byte(secret)}
}

type hsToken struct {
	claims jwt.MapClaims
}

func (t *hsToken) Claims(v interface{}) error {
	// round-trip through the jwt claims map
	m, ok := v.(*map[string]interface{})
	if !ok {
		return errors.New("unsupported claims target")
	}
	*m = map[string]interface{}(t.claims)
	return nil
}

func (h *HSVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return h.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return &hsToken{claims: claims}, nil
}

// GenerateToken mints a signed HS256 token for the given identity. Intended
// for development tooling and handler tests.
func GenerateToken(secret, sub, email string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}
