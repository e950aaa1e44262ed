package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "opsgate/pkg/domain-errors"
)

// Max must pass and max+1 must fail for every limit.
type LimitsSuite struct {
	suite.Suite
}

func TestLimitsSuite(t *testing.T) {
	suite.Run(t, new(LimitsSuite))
}

func (s *LimitsSuite) TestCheckSliceCount() {
	s.NoError(CheckSliceCount("prefixes", 0, MaxProtectedPrefixes))
	s.NoError(CheckSliceCount("prefixes", MaxProtectedPrefixes, MaxProtectedPrefixes))

	err := CheckSliceCount("prefixes", MaxProtectedPrefixes+1, MaxProtectedPrefixes)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(err.Error(), "too many prefixes")
}

func (s *LimitsSuite) TestCheckStringLength() {
	s.NoError(CheckStringLength("request id", "", MaxRequestIDLength))
	s.NoError(CheckStringLength("request id", strings.Repeat("a", MaxRequestIDLength), MaxRequestIDLength))

	err := CheckStringLength("request id", strings.Repeat("a", MaxRequestIDLength+1), MaxRequestIDLength)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *LimitsSuite) TestCheckEachStringLength() {
	ok := []string{"/agents", strings.Repeat("x", MaxPrefixLength)}
	s.NoError(CheckEachStringLength("prefix", ok, MaxPrefixLength))

	bad := append(ok, strings.Repeat("x", MaxPrefixLength+1))
	err := CheckEachStringLength("prefix", bad, MaxPrefixLength)
	s.Require().Error(err)
	s.Contains(err.Error(), "prefix exceeds max length of 256")
}
