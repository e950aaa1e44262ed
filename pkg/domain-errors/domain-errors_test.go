package domainerrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite covers the error primitives every gate uses to report
// why a request was turned away.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorString() {
	s.Run("message wins over code", func() {
		err := &Error{Code: CodeCredentialInvalid, Message: "unknown signing key"}
		s.Equal("unknown signing key", err.Error())
	})

	s.Run("code when message is empty", func() {
		err := &Error{Code: CodeTelemetryUnavailable}
		s.Equal("telemetry_unavailable", err.Error())
	})
}

func (s *DomainErrorsSuite) TestMatching() {
	s.Run("errors.Is matches by code", func() {
		a := New(CodeBudgetExceeded, "daily ceiling")
		b := &Error{Code: CodeBudgetExceeded}
		s.True(errors.Is(a, b))
	})

	s.Run("different codes do not match", func() {
		s.False(errors.Is(New(CodeBudgetExceeded, ""), &Error{Code: CodeBackendTimeout}))
	})

	s.Run("plain errors never match", func() {
		err := &Error{Code: CodeNotFound}
		s.False(err.Is(errors.New("not_found")))
	})

	s.Run("match survives fmt wrapping", func() {
		err := fmt.Errorf("fetch keys: %w", New(CodeBackendTimeout, "deadline"))
		s.True(errors.Is(err, &Error{Code: CodeBackendTimeout}))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("keeps the inner domain code", func() {
		inner := New(CodeBackendTimeout, "query deadline")
		wrapped := Wrap(inner, CodeTelemetryUnavailable, "daily aggregate")

		s.True(HasCode(wrapped, CodeBackendTimeout))
		s.Equal("daily aggregate", wrapped.Error())
	})

	s.Run("applies the code to foreign errors", func() {
		wrapped := Wrap(context.DeadlineExceeded, CodeBackendTimeout, "signer keys")

		s.True(HasCode(wrapped, CodeBackendTimeout))
		s.True(errors.Is(wrapped, context.DeadlineExceeded))
	})
}

func (s *DomainErrorsSuite) TestHasCodeAndCodeOf() {
	s.Run("nil has no code", func() {
		s.False(HasCode(nil, CodeInternal))
	})

	s.Run("CodeOf reads the outermost code", func() {
		s.Equal(CodeCredentialMissing, CodeOf(New(CodeCredentialMissing, "")))
	})

	s.Run("CodeOf falls back to internal", func() {
		s.Equal(CodeInternal, CodeOf(errors.New("boom")))
	})
}
