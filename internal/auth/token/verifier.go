// Package token verifies RS256 identity tokens against the cached signer
// key set.
package token

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"opsgate/internal/auth/certs"
	"opsgate/internal/auth/models"
	dErrors "opsgate/pkg/domain-errors"
)

const algorithm = "RS256"

// Claims is the typed payload of an identity token.
type Claims struct {
	AuthTime int64  `json:"auth_time,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// KeySource supplies the current signer key set. A non-nil set returned with
// an error is a stale snapshot that may still be used.
type KeySource interface {
	Get(ctx context.Context) (*certs.KeySet, error)
}

// Verifier validates bearer tokens issued for one project.
type Verifier struct {
	keys     KeySource
	audience string
	issuer   string
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Verifier)

func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// New builds a verifier that accepts tokens whose audience is projectID and
// whose issuer is issuerPrefix+projectID.
func New(keys KeySource, projectID, issuerPrefix string, opts ...Option) *Verifier {
	v := &Verifier{
		keys:     keys,
		audience: projectID,
		issuer:   issuerPrefix + projectID,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks raw and returns the external identity it proves. Failures
// are domain errors: CodeBackendTimeout when the key set could not be loaded
// in time, CodeCredentialInvalid otherwise.
func (v *Verifier) Verify(ctx context.Context, raw string) (*models.Identity, error) {
	if raw == "" {
		return nil, invalid("missing token")
	}
	if v.audience == "" {
		return nil, invalid("token verification not configured")
	}

	keySet, err := v.keys.Get(ctx)
	if keySet == nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, dErrors.Wrap(err, dErrors.CodeBackendTimeout, "signer keys fetch timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeCredentialInvalid, "signer keys unavailable")
	}
	if err != nil {
		v.logger.DebugContext(ctx, "verifying against stale signer keys", "error", err)
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(raw, claims, keyFunc(keySet),
		jwt.WithValidMethods([]string{algorithm}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeCredentialInvalid, reasonFor(err))
	}

	// The audience option accepts any matching entry; a token must name only us.
	if len(claims.Audience) != 1 {
		return nil, invalid("invalid audience")
	}
	if claims.Subject == "" {
		return nil, invalid("missing subject")
	}

	return models.NewExternalIdentity(claims.Subject), nil
}

func keyFunc(keySet *certs.KeySet) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errMissingKid
		}
		key, ok := keySet.Key(kid)
		if !ok {
			return nil, errUnknownKid
		}
		return key, nil
	}
}

var (
	errMissingKid = errors.New("token header has no kid")
	errUnknownKid = errors.New("token kid not in signer key set")
)

func reasonFor(err error) string {
	switch {
	case errors.Is(err, errMissingKid):
		return "missing key id"
	case errors.Is(err, errUnknownKid):
		return "unknown key id"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed token"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "invalid signature"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return "token not yet valid"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "invalid audience"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "invalid issuer"
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "missing required claim"
	default:
		return "invalid token"
	}
}

func invalid(reason string) error {
	return dErrors.New(dErrors.CodeCredentialInvalid, reason)
}
