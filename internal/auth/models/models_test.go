package models

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCredentials(t *testing.T) {
	t.Run("api key header wins over internal key header", func(t *testing.T) {
		h := http.Header{}
		h.Set(HeaderAPIKey, "primary")
		h.Set(HeaderInternalKey, "secondary")

		creds := ExtractCredentials(h)
		require.NotNil(t, creds.SharedSecret)
		assert.Equal(t, "primary", creds.SharedSecret.Value)
		assert.Nil(t, creds.Bearer)
	})

	t.Run("internal key header is accepted", func(t *testing.T) {
		h := http.Header{}
		h.Set(HeaderInternalKey, "secondary")

		creds := ExtractCredentials(h)
		require.NotNil(t, creds.SharedSecret)
		assert.Equal(t, CredentialSharedSecret, creds.SharedSecret.Kind)
		assert.Equal(t, "secondary", creds.SharedSecret.Value)
	})

	t.Run("bearer token", func(t *testing.T) {
		h := http.Header{}
		h.Set(HeaderAuthorization, "Bearer abc.def.ghi")

		creds := ExtractCredentials(h)
		assert.Nil(t, creds.SharedSecret)
		require.NotNil(t, creds.Bearer)
		assert.Equal(t, "abc.def.ghi", creds.Bearer.Value)
	})

	t.Run("bearer scheme is case insensitive", func(t *testing.T) {
		h := http.Header{}
		h.Set(HeaderAuthorization, "bearer tok")
		require.NotNil(t, ExtractCredentials(h).Bearer)
	})

	cases := map[string]string{
		"basic scheme":         "Basic dXNlcjpwYXNz",
		"bearer without token": "Bearer ",
		"scheme only":          "Bearer",
	}
	for name, header := range cases {
		t.Run(name+" is ignored", func(t *testing.T) {
			h := http.Header{}
			h.Set(HeaderAuthorization, header)
			assert.True(t, ExtractCredentials(h).Empty())
		})
	}

	t.Run("empty api key is absent", func(t *testing.T) {
		h := http.Header{}
		h.Set(HeaderAPIKey, "")
		assert.True(t, ExtractCredentials(h).Empty())
	})

	t.Run("api key is not trimmed", func(t *testing.T) {
		h := http.Header{}
		h.Set(HeaderAPIKey, "\tkey\u00a0")

		creds := ExtractCredentials(h)
		require.NotNil(t, creds.SharedSecret)
		assert.Equal(t, "\tkey\u00a0", creds.SharedSecret.Value)
	})
}

func TestIdentity(t *testing.T) {
	internal := NewInternalIdentity()
	assert.Equal(t, KindInternal, internal.Kind)
	assert.Equal(t, SourceInternal, internal.Source)
	assert.Equal(t, "internal", internal.Actor())

	external := NewExternalIdentity("uid-1")
	assert.Equal(t, KindExternalVerified, external.Kind)
	assert.Equal(t, "admin:uid-1", external.Actor())

	var missing *Identity
	assert.Equal(t, "anonymous", missing.Actor())
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, IdentityFrom(ctx))

	identity := NewExternalIdentity("uid-2")
	assert.Same(t, identity, IdentityFrom(WithIdentity(ctx, identity)))
}
