package protocol

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// TagMap holds #<letter> constraints keyed by the tag letter, without the '#'.
type TagMap map[string][]string

// Filter is a NIP-01 query descriptor. Nil fields are absent on the wire.
type Filter struct {
	IDs     []string
	Authors []string
	Kinds   []Kind
	Tags    TagMap
	Since   *Timestamp
	Until   *Timestamp
	Limit   *int
}

// Subscription pairs a subscription id with the filters of one REQ.
type Subscription struct {
	ID      string   `json:"id"`
	Filters []Filter `json:"filters"`
}

func (f Filter) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	field := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.Write(appendQuoted(nil, key))
		buf.WriteByte(':')
		buf.Write(b)
		return nil
	}

	if f.IDs != nil {
		if err := field("ids", f.IDs); err != nil {
			return nil, err
		}
	}
	if f.Authors != nil {
		if err := field("authors", f.Authors); err != nil {
			return nil, err
		}
	}
	if f.Kinds != nil {
		if err := field("kinds", f.Kinds); err != nil {
			return nil, err
		}
	}
	letters := make([]string, 0, len(f.Tags))
	for k := range f.Tags {
		letters = append(letters, k)
	}
	sort.Strings(letters)
	for _, k := range letters {
		values := f.Tags[k]
		if values == nil {
			values = []string{}
		}
		if err := field("#"+k, values); err != nil {
			return nil, err
		}
	}
	if f.Since != nil {
		if err := field("since", *f.Since); err != nil {
			return nil, err
		}
	}
	if f.Until != nil {
		if err := field("until", *f.Until); err != nil {
			return nil, err
		}
	}
	if f.Limit != nil {
		if err := field("limit", *f.Limit); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a filter object. Unknown keys are ignored; keys
// starting with '#' become tag constraints.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Wrap(CodeInvalidFilter, "filter must be a JSON object", err)
	}
	var out Filter
	for key, value := range raw {
		var err error
		switch {
		case key == "ids":
			err = json.Unmarshal(value, &out.IDs)
		case key == "authors":
			err = json.Unmarshal(value, &out.Authors)
		case key == "kinds":
			err = json.Unmarshal(value, &out.Kinds)
		case key == "since":
			out.Since, err = optional[Timestamp](value)
		case key == "until":
			out.Until, err = optional[Timestamp](value)
		case key == "limit":
			out.Limit, err = optional[int](value)
		case strings.HasPrefix(key, "#") && len(key) > 1:
			var values []string
			err = json.Unmarshal(value, &values)
			if err == nil {
				if out.Tags == nil {
					out.Tags = TagMap{}
				}
				out.Tags[key[1:]] = values
			}
		}
		if err != nil {
			return Wrap(CodeInvalidFilter, "filter field "+key, err)
		}
	}
	*f = out
	return nil
}

// optional decodes a nullable scalar; null leaves the field absent.
func optional[T any](value json.RawMessage) (*T, error) {
	if string(bytes.TrimSpace(value)) == "null" {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(value, v); err != nil {
		return nil, err
	}
	return v, nil
}
