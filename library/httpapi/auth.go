package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/bookdesk/bookdesk/library/core"
)

const bearerPrefix = "Bearer "

var (
	ErrUnauthenticated = errors.New("missing or invalid credentials")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
)

// Tokens issues and verifies the bearer tokens handed out by POST /api/login.
// A token is base64url(claims) "." base64url(HMAC-SHA256(claims)).
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type TokenOption func(*Tokens)

func WithTokenClock(now func() time.Time) TokenOption {
	return func(t *Tokens) { t.now = now }
}

type tokenClaims struct {
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"exp"`
}

func NewTokens(secret []byte, ttl time.Duration, opts ...TokenOption) *Tokens {
	t := &Tokens{secret: secret, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}

	return t
}

// RandomSecret returns 32 random bytes for servers started without a configured secret.
func RandomSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}

	return secret, nil
}

// Issue returns a token for memberID and its expiry.
func (t *Tokens) Issue(memberID core.MemberIDString) (string, time.Time, error) {
	expiresAt := t.now().Add(t.ttl).UTC().Truncate(time.Second)

	claims, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(tokenClaims{
		Subject:   memberID,
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return "", time.Time{}, err
	}

	encoded := base64.RawURLEncoding.EncodeToString(claims)

	return encoded + "." + base64.RawURLEncoding.EncodeToString(t.sign(encoded)), expiresAt, nil
}

// Verify returns the member a token was issued for.
func (t *Tokens) Verify(token string) (core.MemberIDString, error) {
	encoded, signature, found := strings.Cut(token, ".")
	if !found {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, ErrInvalidToken)
	}

	given, err := base64.RawURLEncoding.DecodeString(signature)
	if err != nil || !hmac.Equal(given, t.sign(encoded)) {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, ErrInvalidToken)
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, ErrInvalidToken)
	}

	var claims tokenClaims
	if err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &claims); err != nil || claims.Subject == "" {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, ErrInvalidToken)
	}

	if !t.now().Before(time.Unix(claims.ExpiresAt, 0)) {
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, ErrTokenExpired)
	}

	return claims.Subject, nil
}

func (t *Tokens) sign(encoded string) []byte {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(encoded))

	return mac.Sum(nil)
}

type actorKey struct{}

// AuthMiddleware puts the member of a valid bearer token into the request context.
// Requests without an Authorization header pass through anonymously; a bad token is rejected.
func AuthMiddleware(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !strings.HasPrefix(header, bearerPrefix) {
				writeError(w, fmt.Errorf("%w: %w", ErrUnauthenticated, ErrInvalidToken))
				return
			}

			memberID, err := tokens.Verify(strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				writeError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, memberID)))
		})
	}
}

// requireActor rejects anonymous requests.
func requireActor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if actor(r) == "" {
			writeError(w, ErrUnauthenticated)
			return
		}

		next(w, r)
	}
}

// actor is the authenticated member of the request, empty for anonymous requests.
func actor(r *http.Request) core.MemberIDString {
	memberID, _ := r.Context().Value(actorKey{}).(core.MemberIDString)

	return memberID
}
