package protocol

import (
	"encoding/hex"
	"strings"
)

const (
	IDSize         = 32
	PublicKeySize  = 32
	PrivateKeySize = 32
	SignatureSize  = 64
)

// EncodeHex returns the lowercase hex form of b.
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

// DecodeHex decodes a case-insensitive hex string. When size is positive
// the decoded value must be exactly size bytes.
func DecodeHex(s string, size int) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, Errorf(CodeInvalidHex, "invalid hex string: odd length %d", len(s))
	}
	b, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return nil, Wrap(CodeInvalidHex, "invalid hex string", err)
	}
	if size > 0 && len(b) != size {
		return nil, Errorf(CodeInvalidLength, "invalid length: expected %d bytes (%d hex characters), got %d bytes", size, size*2, len(b))
	}
	return b, nil
}

// IsHex reports whether s is well-formed hex of exactly size bytes
// (any even length when size is zero).
func IsHex(s string, size int) bool {
	if size > 0 && len(s) != size*2 {
		return false
	}
	_, err := DecodeHex(s, size)
	return err == nil
}
