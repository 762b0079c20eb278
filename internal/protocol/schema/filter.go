package schema

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/danmuck/nostrkit/internal/protocol"
)

const (
	msgSinceUntil      = "since must be less than or equal to until"
	msgNoFilters       = "subscription must contain at least one filter"
	msgSubIDEmpty      = "subscription id must not be empty"
	msgSubIDType       = "subscription id must be a string"
	msgFiltersType     = "filters must be an array"
	msgFilterNotObject = "filter must be a JSON object"
)

// Filter checks element formats and the since/until ordering.
func (v Validator) Filter(f protocol.Filter) Result {
	var r report
	filterRules(&r, f)
	return v.finish("filter", &r)
}

// FilterJSON checks a raw filter object, including the type of every known
// field. Unknown keys are ignored.
func (v Validator) FilterJSON(raw []byte) Result {
	var r report
	if root, ok := parseObject(&r, raw, "filter"); ok {
		filterJSONRules(&r, root)
	}
	return v.finish("filter_json", &r)
}

// Subscription checks the id and every filter; filter errors are prefixed
// with "filters[i]: ".
func (v Validator) Subscription(s protocol.Subscription) Result {
	var r report
	subscriptionIDRules(&r, s.ID)
	if len(s.Filters) == 0 {
		r.addf(msgNoFilters)
	}
	for i, f := range s.Filters {
		var fr report
		filterRules(&fr, f)
		r.merge(fmt.Sprintf("filters[%d]: ", i), fr.result())
	}
	return v.finish("subscription", &r)
}

// SubscriptionJSON checks {"id": ..., "filters": [...]}.
func (v Validator) SubscriptionJSON(raw []byte) Result {
	var r report
	root, ok := parseObject(&r, raw, "subscription")
	if !ok {
		return v.finish("subscription_json", &r)
	}

	id := root.Get("id")
	if id.Type != gjson.String {
		r.addf(msgSubIDType)
	} else {
		subscriptionIDRules(&r, id.Str)
	}

	filters := root.Get("filters")
	switch {
	case !filters.IsArray():
		r.addf(msgFiltersType)
	case len(filters.Array()) == 0:
		r.addf(msgNoFilters)
	default:
		for i, f := range filters.Array() {
			var fr report
			if f.IsObject() {
				filterJSONRules(&fr, f)
			} else {
				fr.addf(msgFilterNotObject)
			}
			r.merge(fmt.Sprintf("filters[%d]: ", i), fr.result())
		}
	}
	return v.finish("subscription_json", &r)
}

func subscriptionIDRules(r *report, id string) {
	if id == "" {
		r.addf(msgSubIDEmpty)
		return
	}
	if n := utf8.RuneCountInString(id); n > MaxSubscriptionIDLength {
		r.addf("subscription id must be at most %d characters (got %d)", MaxSubscriptionIDLength, n)
	}
}

func filterRules(r *report, f protocol.Filter) {
	for i, id := range f.IDs {
		if !protocol.IsHex(id, protocol.IDSize) {
			r.addf("ids[%d] must be a 64-character hex string", i)
		}
	}
	for i, author := range f.Authors {
		if !protocol.IsHex(author, protocol.PublicKeySize) {
			r.addf("authors[%d] must be a 64-character hex string", i)
		}
	}
	for i, k := range f.Kinds {
		if k < 0 {
			r.addf("kinds[%d] must be a non-negative integer", i)
		}
	}

	letters := make([]string, 0, len(f.Tags))
	for k := range f.Tags {
		letters = append(letters, k)
	}
	sort.Strings(letters)
	for _, k := range letters {
		if !isTagLetter(k) {
			r.addf("tag filter %q must be # followed by a single letter", "#"+k)
		}
	}

	if f.Since != nil && *f.Since < 0 {
		r.addf("since must be a non-negative integer")
	}
	if f.Until != nil && *f.Until < 0 {
		r.addf("until must be a non-negative integer")
	}
	if f.Limit != nil && *f.Limit < 0 {
		r.addf("limit must be a non-negative integer")
	}
	if f.Since != nil && f.Until != nil && *f.Since > *f.Until {
		r.addf(msgSinceUntil)
	}
}

func filterJSONRules(r *report, root gjson.Result) {
	var since, until *int64
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.Str
		switch {
		case name == "ids" || name == "authors":
			if !value.IsArray() {
				r.addf("%s must be an array of strings", name)
				return true
			}
			for i, item := range value.Array() {
				if item.Type != gjson.String || !protocol.IsHex(item.Str, protocol.IDSize) {
					r.addf("%s[%d] must be a 64-character hex string", name, i)
				}
			}
		case name == "kinds":
			if !value.IsArray() {
				r.addf("kinds must be an array of integers")
				return true
			}
			for i, item := range value.Array() {
				if !isNonNegativeInteger(item) {
					r.addf("kinds[%d] must be a non-negative integer", i)
				}
			}
		case name == "since" || name == "until" || name == "limit":
			if !isNonNegativeInteger(value) {
				r.addf("%s must be a non-negative integer", name)
				return true
			}
			n := value.Int()
			if name == "since" {
				since = &n
			} else if name == "until" {
				until = &n
			}
		case strings.HasPrefix(name, "#"):
			if !isTagLetter(name[1:]) {
				r.addf("tag filter %q must be # followed by a single letter", name)
			}
			if !isStringArray(value) {
				r.addf("%s must be an array of strings", name)
			}
		}
		return true
	})
	if since != nil && until != nil && *since > *until {
		r.addf(msgSinceUntil)
	}
}

func isTagLetter(s string) bool {
	if len(s) != 1 {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
