// Package models holds the credential and identity types shared by the
// authentication gate, the token verifier, and the gating pipeline.
package models

import (
	"context"
	"net/http"
	"strings"
)

const (
	HeaderAPIKey        = "X-API-Key"
	HeaderInternalKey   = "X-Internal-Key"
	HeaderAuthorization = "Authorization"
	HeaderRequestSource = "X-Request-Source"

	bearerPrefix = "bearer "
)

// CredentialKind distinguishes the two ways a caller can authenticate.
type CredentialKind int

const (
	CredentialSharedSecret CredentialKind = iota + 1
	CredentialBearer
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialSharedSecret:
		return "shared_secret"
	case CredentialBearer:
		return "bearer"
	default:
		return "unknown"
	}
}

// Credential is one credential presented by a request. It exists only for
// the duration of the request.
type Credential struct {
	Kind  CredentialKind
	Value string
}

// Credentials is what a request presented, at most one of each kind.
type Credentials struct {
	SharedSecret *Credential
	Bearer       *Credential
}

// Empty reports whether the request presented nothing usable.
func (c Credentials) Empty() bool {
	return c.SharedSecret == nil && c.Bearer == nil
}

// ExtractCredentials reads the shared secret from X-API-Key (falling back to
// X-Internal-Key) and the bearer token from Authorization. Empty values are
// treated as absent. The secret is passed on byte for byte, whitespace
// included.
func ExtractCredentials(h http.Header) Credentials {
	var creds Credentials

	secret := h.Get(HeaderAPIKey)
	if secret == "" {
		secret = h.Get(HeaderInternalKey)
	}
	if secret != "" {
		creds.SharedSecret = &Credential{Kind: CredentialSharedSecret, Value: secret}
	}

	if raw := bearerToken(h.Get(HeaderAuthorization)); raw != "" {
		creds.Bearer = &Credential{Kind: CredentialBearer, Value: raw}
	}
	return creds
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// IdentityKind is the category of an authenticated caller.
type IdentityKind int

const (
	KindInternal IdentityKind = iota + 1
	KindExternalVerified
)

func (k IdentityKind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindExternalVerified:
		return "external_verified"
	default:
		return "unknown"
	}
}

func (k IdentityKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Identity source tags, echoed in the X-Request-Source header.
const (
	SourceInternal = "internal"
	SourceAdmin    = "admin"
)

// Identity is the authenticated caller of a protected request.
type Identity struct {
	Kind    IdentityKind `json:"kind"`
	Subject string       `json:"subject,omitempty"`
	Source  string       `json:"source"`
}

// NewInternalIdentity is the identity granted to holders of the shared secret.
func NewInternalIdentity() *Identity {
	return &Identity{Kind: KindInternal, Source: SourceInternal}
}

// NewExternalIdentity is the identity granted to a verified token subject.
func NewExternalIdentity(subject string) *Identity {
	return &Identity{Kind: KindExternalVerified, Subject: subject, Source: SourceAdmin}
}

// Actor is the label used for this identity in the event log.
func (i *Identity) Actor() string {
	if i == nil {
		return "anonymous"
	}
	if i.Subject == "" {
		return i.Source
	}
	return i.Source + ":" + i.Subject
}

type identityKey struct{}

func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom returns the identity attached by the gating middleware, or nil.
func IdentityFrom(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityKey{}).(*Identity)
	return identity
}
