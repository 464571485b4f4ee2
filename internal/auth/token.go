package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("authentication token missing")
	ErrInvalidToken = errors.New("authentication token invalid")
)

// Claims is the token payload issued by the REST login flow. ID carries
// the user's durable identifier.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Verifier validates handshake credentials for the realtime protocol.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret []byte) *Verifier {
	return &Verifier{secret: secret}
}

// Verify parses and validates a token string and returns the user id.
func (v *Verifier) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}

	return claims.ID, nil
}

// VerifyRequest extracts the credential from an upgrade request (query
// parameter or bearer header) and validates it.
func (v *Verifier) VerifyRequest(r *http.Request) (string, error) {
	return v.Verify(tokenFromRequest(r))
}

// Sign issues a token for userID. The REST layer owns login; this is
// kept here so tests and tooling can mint credentials.
func (v *Verifier) Sign(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
