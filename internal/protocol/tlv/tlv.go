package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderLen is one type byte plus one length byte.
const HeaderLen = 2

// MaxValueLen is the largest value a single-byte length can declare.
const MaxValueLen = 255

var (
	ErrShortRecordHeader = errors.New("tlv: short record header")
	ErrShortRecordValue  = errors.New("tlv: declared length runs past end of payload")
	ErrValueTooLong      = errors.New("tlv: value longer than 255 bytes")
)

// Type IDs from the NIP-19 contract.
const (
	TypeSpecial    uint8 = 0
	TypeRelay      uint8 = 1
	TypeAuthor     uint8 = 2
	TypeKind       uint8 = 3
	TypeIdentifier uint8 = 4
)

// Record is one decoded TLV record.
type Record struct {
	Type  uint8
	Value []byte
}

func EncodeRecord(r Record) ([]byte, error) {
	if len(r.Value) > MaxValueLen {
		return nil, fmt.Errorf("%w: type %d has %d bytes", ErrValueTooLong, r.Type, len(r.Value))
	}
	buf := make([]byte, HeaderLen+len(r.Value))
	buf[0] = r.Type
	buf[1] = uint8(len(r.Value))
	copy(buf[HeaderLen:], r.Value)
	return buf, nil
}

// EncodeRecords concatenates records in the order given.
func EncodeRecords(records []Record) ([]byte, error) {
	size := 0
	for _, r := range records {
		size += HeaderLen + len(r.Value)
	}
	out := make([]byte, 0, size)
	for _, r := range records {
		b, err := EncodeRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// DecodeRecords scans payload linearly. Every record is returned, known or
// not; filtering unknown types is the caller's policy.
func DecodeRecords(payload []byte) ([]Record, error) {
	records := make([]Record, 0, 4)
	i := 0
	for i < len(payload) {
		if len(payload)-i < HeaderLen {
			return nil, ErrShortRecordHeader
		}
		typeID := payload[i]
		l := int(payload[i+1])
		i += HeaderLen
		if len(payload)-i < l {
			return nil, fmt.Errorf("%w: type %d declares %d bytes, %d remain", ErrShortRecordValue, typeID, l, len(payload)-i)
		}
		val := make([]byte, l)
		copy(val, payload[i:i+l])
		i += l
		records = append(records, Record{Type: typeID, Value: val})
	}
	return records, nil
}

// First returns the first record of type t.
func First(records []Record, t uint8) (Record, bool) {
	for _, r := range records {
		if r.Type == t {
			return r, true
		}
	}
	return Record{}, false
}

// All returns the values of every record of type t, in order.
func All(records []Record, t uint8) [][]byte {
	var out [][]byte
	for _, r := range records {
		if r.Type == t {
			out = append(out, r.Value)
		}
	}
	return out
}

func U32Bytes(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return buf
}

// U32FromBytes reads a big-endian integer of one to four bytes.
func U32FromBytes(b []byte) (uint32, error) {
	if len(b) == 0 || len(b) > 4 {
		return 0, fmt.Errorf("tlv: invalid u32 length: %d", len(b))
	}
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v, nil
}
