package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Limits accepted by the Validate* functions.
const (
	MaxIDLength   = 128
	MaxNameLength = 256
	MaxDimension  = 16384.0
	MaxCount      = 10000
)

// idRegex matches room and participant identifiers: letters, digits, and
// the separators - _ . : (no leading separator).
var idRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidateRoomID validates a room identifier used in URLs and storage keys.
//
// Rules:
//   - Not empty, at most 128 characters
//   - Letters, digits, and . _ : - only, starting with a letter or digit
//   - No path traversal sequences (..)
func ValidateRoomID(id string) error {
	if err := validateID(id); err != nil {
		return New(ErrCodeInvalidRoom, "room id %s", err.Error())
	}
	return nil
}

// ValidateParticipantID validates a participant identifier. It follows the
// same rules as ValidateRoomID.
func ValidateParticipantID(id string) error {
	if err := validateID(id); err != nil {
		return New(ErrCodeInvalidParticipant, "participant id %s", err.Error())
	}
	return nil
}

type idError string

func (e idError) Error() string { return string(e) }

func validateID(id string) error {
	if id == "" {
		return idError("cannot be empty")
	}
	if len(id) > MaxIDLength {
		return idError("too long (max 128 characters)")
	}
	if strings.Contains(id, "..") {
		return idError("cannot contain path traversal sequences (..)")
	}
	if !idRegex.MatchString(id) {
		return idError("contains invalid characters")
	}
	return nil
}

// ValidateDisplayName validates a participant's display name. Empty names
// are allowed; the participant ID is shown instead.
func ValidateDisplayName(name string) error {
	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidParticipant, "display name too long (max %d characters)", MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidParticipant, "display name contains invalid control characters")
		}
	}
	return nil
}

// ValidateDimensions validates a container size supplied by a client.
// Zero is allowed (a collapsed container); negative, NaN, infinite, or
// absurdly large values are not.
func ValidateDimensions(width, height float64) error {
	for _, v := range []float64{width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidSize, "container size must be finite")
		}
		if v < 0 {
			return New(ErrCodeInvalidSize, "container size cannot be negative: %gx%g", width, height)
		}
		if v > MaxDimension {
			return New(ErrCodeInvalidSize, "container size too large (max %g)", MaxDimension)
		}
	}
	return nil
}

// ValidateCount validates a participant count supplied by a client.
func ValidateCount(n int) error {
	if n < 0 {
		return New(ErrCodeInvalidCount, "participant count cannot be negative: %d", n)
	}
	if n > MaxCount {
		return New(ErrCodeInvalidCount, "participant count too large (max %d)", MaxCount)
	}
	return nil
}

// ValidateGap validates an inter-cell gap.
func ValidateGap(gap float64) error {
	if math.IsNaN(gap) || math.IsInf(gap, 0) || gap < 0 {
		return New(ErrCodeInvalidSize, "gap must be a finite non-negative number")
	}
	if gap > MaxDimension {
		return New(ErrCodeInvalidSize, "gap too large (max %g)", MaxDimension)
	}
	return nil
}
