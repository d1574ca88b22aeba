package zhipu

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/pkg/errors"
)

const (
	AuthModeKey = "key"
	AuthModeJWT = "jwt"

	tokenTTL = 30 * time.Minute
)

// bearerToken returns the credential sent in the Authorization header.
// In key mode the API key is used verbatim; in jwt mode a short-lived
// HS256 token is signed from the "id.secret" key.
func (p *Provider) bearerToken() (string, error) {
	if p.authMode != AuthModeJWT {
		return p.apiKey, nil
	}
	return signToken(p.apiKey, p.now())
}

func signToken(apiKey string, now time.Time) (string, error) {
	id, secret, ok := strings.Cut(apiKey, ".")
	if !ok || id == "" || secret == "" {
		return "", errors.New("invalid API key format for jwt auth, expected 'id.secret'")
	}

	ms := now.UnixMilli()
	claims := jwt.MapClaims{
		"api_key":   id,
		"exp":       ms + tokenTTL.Milliseconds(),
		"timestamp": ms,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["sign_type"] = "SIGN"
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "sign jwt")
	}
	return signed, nil
}
