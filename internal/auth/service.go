// Package auth protects the billing counter behind a single operator login.
// The shop runs one terminal, so credentials live in configuration rather
// than a user table.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/retail-pos/internal/common"
)

const tokenIssuer = "retail-pos"

// Service issues and validates operator access tokens.
type Service struct {
	username     string
	passwordHash string
	secret       []byte
	accessTTL    time.Duration
	clockSkew    time.Duration
	signer       jwa.SignatureAlgorithm
	now          func() time.Time
}

// ServiceConfig carries the operator credentials and token settings.
type ServiceConfig struct {
	Username     string
	PasswordHash string
	Secret       string
	AccessTTL    time.Duration
	ClockSkew    time.Duration
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	if strings.TrimSpace(cfg.Username) == "" || strings.TrimSpace(cfg.PasswordHash) == "" {
		return nil, errors.New("auth: operator credentials are required")
	}
	ttl := cfg.AccessTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	skew := cfg.ClockSkew
	if skew <= 0 {
		skew = time.Minute
	}
	return &Service{
		username:     cfg.Username,
		passwordHash: cfg.PasswordHash,
		secret:       []byte(cfg.Secret),
		accessTTL:    ttl,
		clockSkew:    skew,
		signer:       jwa.HS256,
		now:          time.Now,
	}, nil
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies the operator credentials and returns a signed access token
// with its expiry. Wrong username and wrong password are indistinguishable
// to the caller.
func (s *Service) Login(username, password string) (string, time.Time, error) {
	invalid := common.NewAppError(common.CodeUnauthorized, "invalid credentials", http.StatusUnauthorized, nil)
	if username != s.username {
		return "", time.Time{}, invalid
	}
	ok, err := argon2id.ComparePasswordAndHash(password, s.passwordHash)
	if err != nil || !ok {
		return "", time.Time{}, invalid
	}
	return s.signAccessToken(username)
}

// ParseAccessToken validates a token and returns its subject.
func (s *Service) ParseAccessToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError(common.CodeUnauthorized, "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	if algorithm != s.signer {
		return "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	err = jwt.Validate(parsed,
		jwt.WithClock(jwt.ClockFunc(s.now)),
		jwt.WithAcceptableSkew(s.clockSkew),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return "", common.NewAppError(common.CodeUnauthorized, "invalid token", http.StatusUnauthorized, err)
	}
	return parsed.Subject(), nil
}

func (s *Service) signAccessToken(subject string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	token, err := jwt.NewBuilder().
		Subject(subject).
		Issuer(tokenIssuer).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

// extractTokenAlgorithm reads the algorithm from the protected headers so a
// token cannot pick its own weaker verification scheme.
func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}
