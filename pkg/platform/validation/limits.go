package validation

import (
	"fmt"

	dErrors "opsgate/pkg/domain-errors"
)

// HTTP limits
const (
	// MaxBodySize is the largest request body the API accepts (64 KB). The
	// system endpoints take at most a one-field JSON object.
	MaxBodySize = 64 * 1024

	// MaxRequestIDLength bounds a client supplied X-Request-ID.
	MaxRequestIDLength = 128
)

// Configuration limits
const (
	// MaxProtectedPrefixes is the most path prefixes the pipeline guards.
	MaxProtectedPrefixes = 32

	// MaxPrefixLength is the longest accepted protected prefix.
	MaxPrefixLength = 256
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckEachStringLength validates that each string in a slice does not exceed the maximum length.
func CheckEachStringLength(fieldName string, values []string, max int) error {
	for _, v := range values {
		if err := CheckStringLength(fieldName, v, max); err != nil {
			return err
		}
	}
	return nil
}
