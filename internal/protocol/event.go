package protocol

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// maxExactInteger is the largest integer a JSON number written in float
// form (1.0, 1.7e9) can carry without losing precision.
const maxExactInteger = 1 << 53

// Timestamp is a unix time in seconds.
type Timestamp int64

func Now() Timestamp {
	return Timestamp(time.Now().Unix())
}

func (t Timestamp) Time() time.Time {
	return time.Unix(int64(t), 0)
}

// UnmarshalJSON accepts any integral JSON number, including float forms
// such as 1.7e9.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	n, err := parseInteger(data)
	if err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	*t = Timestamp(n)
	return nil
}

// parseInteger decodes a JSON number that must hold an integer. Float
// forms are accepted when integral and exactly representable.
func parseInteger(data []byte) (int64, error) {
	s := string(data)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s is not a number", s)
	}
	if f != math.Trunc(f) || math.Abs(f) > maxExactInteger {
		return 0, fmt.Errorf("%s is not an integer", s)
	}
	return int64(f), nil
}

// Tag is one tag entry; the first element names it ("e", "p", "d", ...).
type Tag []string

func (t Tag) Key() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

func (t Tag) Value() string {
	if len(t) < 2 {
		return ""
	}
	return t[1]
}

// Tags is the ordered tag list of an event. Order is significant for the id.
type Tags []Tag

// Find returns the first tag named key.
func (t Tags) Find(key string) (Tag, bool) {
	for _, tag := range t {
		if tag.Key() == key {
			return tag, true
		}
	}
	return nil, false
}

// FindAll returns every tag named key, in order.
func (t Tags) FindAll(key string) Tags {
	var out Tags
	for _, tag := range t {
		if tag.Key() == key {
			out = append(out, tag)
		}
	}
	return out
}

func (t Tags) Clone() Tags {
	if t == nil {
		return nil
	}
	out := make(Tags, len(t))
	for i, tag := range t {
		if tag == nil {
			continue
		}
		out[i] = append(Tag(make([]string, 0, len(tag))), tag...)
	}
	return out
}

// MarshalJSON renders nil tags as [] rather than null.
func (t Tags) MarshalJSON() ([]byte, error) {
	return appendTags(nil, t), nil
}

// Event is the NIP-01 event. ID and Sig are empty until the event is signed.
type Event struct {
	ID        string    `json:"id,omitempty"`
	PubKey    string    `json:"pubkey"`
	CreatedAt Timestamp `json:"created_at"`
	Kind      Kind      `json:"kind"`
	Tags      Tags      `json:"tags"`
	Content   string    `json:"content"`
	Sig       string    `json:"sig,omitempty"`
}

// Clone returns a copy of e that shares no tag storage with it.
func (e Event) Clone() Event {
	out := e
	out.Tags = e.Tags.Clone()
	return out
}

// HasSignature reports whether id and sig are populated. It does not verify them.
func (e Event) HasSignature() bool {
	return e.ID != "" && e.Sig != ""
}

// MarshalJSON renders the wire shape with the same string escaping used
// for the canonical serialization.
func (e Event) MarshalJSON() ([]byte, error) {
	dst := make([]byte, 0, 256+len(e.Content))
	dst = append(dst, '{')
	if e.ID != "" {
		dst = append(dst, `"id":`...)
		dst = appendQuoted(dst, e.ID)
		dst = append(dst, ',')
	}
	dst = append(dst, `"pubkey":`...)
	dst = appendQuoted(dst, e.PubKey)
	dst = append(dst, `,"created_at":`...)
	dst = strconv.AppendInt(dst, int64(e.CreatedAt), 10)
	dst = append(dst, `,"kind":`...)
	dst = strconv.AppendInt(dst, int64(e.Kind), 10)
	dst = append(dst, `,"tags":`...)
	dst = appendTags(dst, e.Tags)
	dst = append(dst, `,"content":`...)
	dst = appendQuoted(dst, e.Content)
	if e.Sig != "" {
		dst = append(dst, `,"sig":`...)
		dst = appendQuoted(dst, e.Sig)
	}
	dst = append(dst, '}')
	return dst, nil
}

func (e Event) String() string {
	b, _ := e.MarshalJSON()
	return string(b)
}
