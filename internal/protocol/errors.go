package protocol

import (
	"errors"
	"fmt"
)

// Class groups error codes into the five failure classes of the protocol core.
type Class string

const (
	ClassCrypto     Class = "crypto"
	ClassValidation Class = "validation"
	ClassEncoding   Class = "encoding"
	ClassProtocol   Class = "protocol"
	ClassEvent      Class = "event"
)

// Code is a stable machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Encoding errors
	CodeInvalidHex       Code = "INVALID_HEX"
	CodeInvalidLength    Code = "INVALID_LENGTH"
	CodeInvalidBech32    Code = "INVALID_BECH32"
	CodeUnknownPrefix    Code = "UNKNOWN_PREFIX"
	CodeInvalidTLV       Code = "INVALID_TLV"
	CodeInvalidRelayURL  Code = "INVALID_RELAY_URL"
	CodeEntityTooLong    Code = "ENTITY_TOO_LONG"
	CodeInvalidBase64    Code = "INVALID_BASE64"
	CodeMissingTLVRecord Code = "MISSING_TLV_RECORD"

	// Crypto errors
	CodeInvalidPrivateKey Code = "INVALID_PRIVATE_KEY"
	CodeInvalidPublicKey  Code = "INVALID_PUBLIC_KEY"
	CodeSigningFailed     Code = "SIGNING_FAILED"
	CodeKeyGeneration     Code = "KEY_GENERATION_FAILED"
	CodeEncryptionFailed  Code = "ENCRYPTION_FAILED"
	CodeDecryptionFailed  Code = "DECRYPTION_FAILED"

	// Protocol errors
	CodeInvalidMessage     Code = "INVALID_MESSAGE"
	CodeUnknownMessageType Code = "UNKNOWN_MESSAGE_TYPE"

	// Event errors
	CodeInvalidEvent  Code = "INVALID_EVENT"
	CodeInvalidFilter Code = "INVALID_FILTER"

	// Validation errors
	CodeValidationFailed Code = "VALIDATION_FAILED"
)

// Class maps a code onto its failure class.
func (c Code) Class() Class {
	switch c {
	case CodeInvalidHex,
		CodeInvalidLength,
		CodeInvalidBech32,
		CodeUnknownPrefix,
		CodeInvalidTLV,
		CodeInvalidRelayURL,
		CodeEntityTooLong,
		CodeInvalidBase64,
		CodeMissingTLVRecord:
		return ClassEncoding

	case CodeInvalidPrivateKey,
		CodeInvalidPublicKey,
		CodeSigningFailed,
		CodeKeyGeneration,
		CodeEncryptionFailed,
		CodeDecryptionFailed:
		return ClassCrypto

	case CodeInvalidMessage,
		CodeUnknownMessageType:
		return ClassProtocol

	case CodeInvalidEvent,
		CodeInvalidFilter:
		return ClassEvent

	case CodeValidationFailed:
		return ClassValidation

	default:
		return ClassProtocol
	}
}

// Error is the protocol error type. Callers switch on Class or compare
// against the exported sentinels with errors.Is, which matches by code.
type Error struct {
	Class   Class
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s error: %s", e.Class, e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// NewError creates an error for code with a fixed message.
func NewError(code Code, message string) *Error {
	return &Error{Class: code.Class(), Code: code, Message: message}
}

// Errorf creates an error for code with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// Wrap creates an error for code that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	if cause != nil {
		message = message + ": " + cause.Error()
	}
	return &Error{Class: code.Class(), Code: code, Message: message, Cause: cause}
}

// ClassOf returns the failure class of err, or "" when err is not a protocol error.
func ClassOf(err error) Class {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Class
	}
	return ""
}

var (
	ErrInvalidHex         = NewError(CodeInvalidHex, "invalid hex string")
	ErrInvalidLength      = NewError(CodeInvalidLength, "invalid length")
	ErrInvalidBech32      = NewError(CodeInvalidBech32, "invalid bech32 string")
	ErrUnknownPrefix      = NewError(CodeUnknownPrefix, "unknown prefix")
	ErrInvalidTLV         = NewError(CodeInvalidTLV, "invalid tlv payload")
	ErrMissingTLVRecord   = NewError(CodeMissingTLVRecord, "missing required tlv record")
	ErrInvalidRelayURL    = NewError(CodeInvalidRelayURL, "invalid relay url")
	ErrEntityTooLong      = NewError(CodeEntityTooLong, "entity exceeds maximum length")
	ErrInvalidPrivateKey  = NewError(CodeInvalidPrivateKey, "invalid private key")
	ErrInvalidPublicKey   = NewError(CodeInvalidPublicKey, "invalid public key")
	ErrSigningFailed      = NewError(CodeSigningFailed, "signing failed")
	ErrEncryptionFailed   = NewError(CodeEncryptionFailed, "encryption failed")
	ErrDecryptionFailed   = NewError(CodeDecryptionFailed, "decryption failed")
	ErrInvalidBase64      = NewError(CodeInvalidBase64, "invalid base64")
	ErrInvalidMessage     = NewError(CodeInvalidMessage, "invalid relay message")
	ErrUnknownMessageType = NewError(CodeUnknownMessageType, "unknown message type")
	ErrInvalidEvent       = NewError(CodeInvalidEvent, "invalid event")
	ErrInvalidFilter      = NewError(CodeInvalidFilter, "invalid filter")
	ErrValidationFailed   = NewError(CodeValidationFailed, "validation failed")
)
