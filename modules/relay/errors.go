package relay

import (
	"errors"
	"unicode/utf8"
)

// Validation constants
const (
	MaxSenderLength  = 50
	MaxMessageLength = 4096
)

// Errors reported by the store and module operations.
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrNotInRoom      = errors.New("not in a room")
	ErrKeyGeneration  = errors.New("failed to generate unique room key after multiple attempts")
	ErrMessageEmpty   = errors.New("message text cannot be empty")
	ErrMessageTooLong = errors.New("message text exceeds maximum length")
	ErrMessageInvalid = errors.New("message text is not valid UTF-8")
	ErrSenderTooLong  = errors.New("sender name exceeds maximum length")
)

// ValidateText validates message text. Presence is a protocol requirement; the
// length and encoding bounds keep a single frame from flooding history.
func ValidateText(text string) error {
	if text == "" {
		return ErrMessageEmpty
	}
	if len(text) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if !utf8.ValidString(text) {
		return ErrMessageInvalid
	}
	return nil
}

// ValidateSender validates an optional sender display name.
func ValidateSender(sender string) error {
	if len(sender) > MaxSenderLength {
		return ErrSenderTooLong
	}
	return nil
}
