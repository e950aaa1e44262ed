// Package gate decides who is calling a protected route: an internal caller
// holding the shared secret, or an external caller with a verified token.
package gate

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"opsgate/internal/auth/models"
	dErrors "opsgate/pkg/domain-errors"
)

// TokenVerifier validates a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*models.Identity, error)
}

// Gate authenticates requests. It holds only the digest of the shared secret.
type Gate struct {
	secretDigest [sha256.Size]byte
	hasSecret    bool
	verifier     TokenVerifier
	logger       *slog.Logger
}

type Option func(*Gate)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New builds a gate. An empty sharedSecret disables the internal path; a nil
// verifier disables the bearer path.
func New(sharedSecret string, verifier TokenVerifier, opts ...Option) *Gate {
	g := &Gate{
		verifier: verifier,
		logger:   slog.Default(),
	}
	if sharedSecret != "" {
		g.secretDigest = sha256.Sum256([]byte(sharedSecret))
		g.hasSecret = true
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authenticate resolves the caller identity from request headers.
//
// A matching shared secret wins without consulting the verifier. Otherwise a
// bearer token is verified. A request with neither fails with
// CodeCredentialMissing; a wrong secret with no token fails with
// CodeCredentialInvalid.
func (g *Gate) Authenticate(ctx context.Context, h http.Header) (*models.Identity, error) {
	creds := models.ExtractCredentials(h)
	if creds.Empty() {
		return nil, dErrors.New(dErrors.CodeCredentialMissing, "missing credentials")
	}

	if creds.SharedSecret != nil && g.secretMatches(creds.SharedSecret.Value) {
		return models.NewInternalIdentity(), nil
	}

	if creds.Bearer != nil {
		if g.verifier == nil {
			return nil, dErrors.New(dErrors.CodeCredentialInvalid, "token verification not configured")
		}
		identity, err := g.verifier.Verify(ctx, creds.Bearer.Value)
		if err != nil {
			g.logger.DebugContext(ctx, "bearer token rejected", "error", err)
			return nil, err
		}
		return identity, nil
	}

	return nil, dErrors.New(dErrors.CodeCredentialInvalid, "invalid api key")
}

// secretMatches compares fixed-size digests so timing reveals neither the
// secret's length nor a matching prefix.
func (g *Gate) secretMatches(presented string) bool {
	if !g.hasSecret {
		return false
	}
	digest := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(digest[:], g.secretDigest[:]) == 1
}
