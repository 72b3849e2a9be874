package sessioncookie

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlibekovAA/dashboard-auth/internal/common/constants"
	commonerrors "github.com/AlibekovAA/dashboard-auth/internal/common/errors"
)

// Codec signs opaque session tokens into cookie values and verifies them on
// the way back. The signature only proves the value was minted here; session
// validity is still decided by the session table.
type Codec struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

type Config struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < constants.SessionSecretMinLength {
		return nil, commonerrors.ErrInvalidSessionSecret
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = constants.DefaultSessionTTL
	}
	return &Codec{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		secure: cfg.Secure,
	}, nil
}

func (c *Codec) Encode(token string, issuedAt time.Time) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		SessionID: token,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

func (c *Codec) Decode(value string) (string, error) {
	if value == "" {
		return "", commonerrors.ErrInvalidSessionCookie
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(value, &parsed, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", commonerrors.ErrInvalidSessionCookie.WithCause(err)
	}
	if parsed.SessionID == "" {
		return "", commonerrors.ErrInvalidSessionCookie.WithCause(errors.New("missing sid claim"))
	}
	return parsed.SessionID, nil
}

// FromRequest returns the raw cookie value, falling back to a bearer header
// for non-browser clients.
func FromRequest(r *http.Request) (string, bool) {
	if cookie, err := r.Cookie(constants.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}

	raw := r.Header.Get("Authorization")
	if value, ok := strings.CutPrefix(raw, "Bearer "); ok && value != "" {
		return value, true
	}
	return "", false
}

func (c *Codec) Set(w http.ResponseWriter, r *http.Request, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure || r.TLS != nil,
	})
}

func (c *Codec) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure || r.TLS != nil,
	})
}
