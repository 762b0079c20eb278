package protocol

import (
	"strconv"
	"strings"

	"github.com/minio/sha256-simd"
)

// serializationVersion leads every canonical serialization.
const serializationVersion = '0'

const hexDigits = "0123456789abcdef"

// Serialize returns the canonical form [0,pubkey,created_at,kind,tags,content]
// that the event id is derived from. Two events with equal fields always
// produce identical bytes.
func (e Event) Serialize() []byte {
	size := 64 + len(e.PubKey) + len(e.Content)
	for _, tag := range e.Tags {
		for _, v := range tag {
			size += len(v) + 3
		}
	}
	dst := make([]byte, 0, size)
	dst = append(dst, '[', serializationVersion, ',')
	dst = appendQuoted(dst, e.PubKey)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, int64(e.CreatedAt), 10)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, int64(e.Kind), 10)
	dst = append(dst, ',')
	dst = appendTags(dst, e.Tags)
	dst = append(dst, ',')
	dst = appendQuoted(dst, e.Content)
	dst = append(dst, ']')
	return dst
}

// Hash returns sha256 of the canonical serialization.
func (e Event) Hash() [IDSize]byte {
	return sha256.Sum256(e.Serialize())
}

// ComputeID returns the lowercase hex id derived from the signable fields.
func (e Event) ComputeID() string {
	h := e.Hash()
	return EncodeHex(h[:])
}

// CheckID reports whether the stored id matches the derived one.
func (e Event) CheckID() bool {
	return e.ID != "" && strings.ToLower(e.ID) == e.ComputeID()
}

func appendTags(dst []byte, tags Tags) []byte {
	dst = append(dst, '[')
	for i, tag := range tags {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = append(dst, '[')
		for j, v := range tag {
			if j > 0 {
				dst = append(dst, ',')
			}
			dst = appendQuoted(dst, v)
		}
		dst = append(dst, ']')
	}
	return append(dst, ']')
}

// appendQuoted escapes s the way JSON.stringify does: quote, backslash and
// C0 controls only. Everything else, HTML characters and non-ASCII
// included, is written through unchanged.
func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if c < 0x20 {
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
				continue
			}
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}
