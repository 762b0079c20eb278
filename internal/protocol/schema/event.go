package schema

import (
	"encoding/json"
	"math"

	"github.com/tidwall/gjson"

	"github.com/danmuck/nostrkit/internal/protocol"
)

const (
	msgKind          = "kind must be a non-negative integer"
	msgContentType   = "content must be a string"
	msgTagsType      = "tags must be an array"
	msgCreatedAtType = "created_at must be an integer"
	msgPubKey        = "pubkey must be a 64-character hex string"
	msgPubKeyMissing = "pubkey is required"
	msgID            = "id must be a 64-character hex string"
	msgSig           = "sig must be a 128-character hex string"
	msgIDMismatch    = "id does not match the event hash"
	msgBadSignature  = "signature verification failed"
	msgUndecodable   = "event could not be decoded for signature verification"
)

// Event checks the unsigned-event rules: kind, content length, tag count,
// created_at drift and pubkey format when one is set.
func (v Validator) Event(evt protocol.Event) Result {
	var r report
	v.eventRules(&r, evt)
	return v.finish("event", &r)
}

// SignedEvent adds the id/sig format checks and, only when every format
// check passes, the id binding and signature checks.
func (v Validator) SignedEvent(evt protocol.Event) Result {
	var r report
	v.eventRules(&r, evt)
	if signedFormatRules(&r, evt.PubKey, evt.ID, evt.Sig) {
		v.bindingRules(&r, evt)
	}
	return v.finish("signed_event", &r)
}

// EventJSON runs the Event rules against raw JSON, also checking the type
// of every field.
func (v Validator) EventJSON(raw []byte) Result {
	var r report
	if root, ok := parseObject(&r, raw, "event"); ok {
		v.eventJSONRules(&r, root)
	}
	return v.finish("event_json", &r)
}

// SignedEventJSON is SignedEvent for raw JSON. A document that passes the
// format checks but still does not decode into an event is reported, never
// passed without its binding checks.
func (v Validator) SignedEventJSON(raw []byte) Result {
	var r report
	root, ok := parseObject(&r, raw, "event")
	if !ok {
		return v.finish("signed_event_json", &r)
	}
	v.eventJSONRules(&r, root)

	pub, id, sig := root.Get("pubkey"), root.Get("id"), root.Get("sig")
	formatOK := signedFormatRules(&r, stringOrMarker(pub), stringOrMarker(id), stringOrMarker(sig))
	if formatOK {
		var evt protocol.Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			r.addf(msgUndecodable)
		} else {
			v.bindingRules(&r, evt)
		}
	}
	return v.finish("signed_event_json", &r)
}

func (v Validator) eventRules(r *report, evt protocol.Event) {
	if evt.Kind < 0 {
		r.addf(msgKind)
	}
	v.checkContent(r, evt.Content)
	v.checkTagCount(r, len(evt.Tags))
	v.checkCreatedAt(r, int64(evt.CreatedAt))
	if evt.PubKey != "" && !protocol.IsHex(evt.PubKey, protocol.PublicKeySize) {
		r.addf(msgPubKey)
	}
}

func (v Validator) eventJSONRules(r *report, root gjson.Result) {
	if !isNonNegativeInteger(root.Get("kind")) {
		r.addf(msgKind)
	}

	content := root.Get("content")
	if content.Type != gjson.String {
		r.addf(msgContentType)
	} else {
		v.checkContent(r, content.Str)
	}

	tags := root.Get("tags")
	if !tags.IsArray() {
		r.addf(msgTagsType)
	} else {
		items := tags.Array()
		v.checkTagCount(r, len(items))
		for i, tag := range items {
			if !isStringArray(tag) {
				r.addf("tags[%d] must be an array of strings", i)
			}
		}
	}

	created := root.Get("created_at")
	if !isInteger(created) {
		r.addf(msgCreatedAtType)
	} else {
		v.checkCreatedAt(r, created.Int())
	}

	pub := root.Get("pubkey")
	if pub.Exists() && pub.Type != gjson.Null {
		if pub.Type != gjson.String || (pub.Str != "" && !protocol.IsHex(pub.Str, protocol.PublicKeySize)) {
			r.addf(msgPubKey)
		}
	}
}

func (v Validator) checkContent(r *report, content string) {
	if n := utf16Len(content); n > v.limits.MaxContentLength {
		r.addf("content length %d exceeds maximum of %d", n, v.limits.MaxContentLength)
	}
}

func (v Validator) checkTagCount(r *report, n int) {
	if n > v.limits.MaxTags {
		r.addf("tags count %d exceeds maximum of %d", n, v.limits.MaxTags)
	}
}

func (v Validator) checkCreatedAt(r *report, createdAt int64) {
	limit := v.clock.Now().Add(v.limits.MaxFutureDrift).Unix()
	if createdAt > limit {
		r.addf("created_at %d is more than %s in the future", createdAt, v.limits.MaxFutureDrift)
	}
}

// signedFormatRules reports missing or malformed pubkey, id and sig. A
// malformed pubkey was already reported by the event rules.
func signedFormatRules(r *report, pub, id, sig string) bool {
	ok := true
	switch {
	case pub == "":
		r.addf(msgPubKeyMissing)
		ok = false
	case !protocol.IsHex(pub, protocol.PublicKeySize):
		ok = false
	}
	if !protocol.IsHex(id, protocol.IDSize) {
		r.addf(msgID)
		ok = false
	}
	if !protocol.IsHex(sig, protocol.SignatureSize) {
		r.addf(msgSig)
		ok = false
	}
	return ok
}

func (v Validator) bindingRules(r *report, evt protocol.Event) {
	if !evt.CheckID() {
		r.addf(msgIDMismatch)
		return
	}
	if !protocol.VerifyWith(v.signer, evt) {
		r.addf(msgBadSignature)
	}
}

func parseObject(r *report, raw []byte, what string) (gjson.Result, bool) {
	if !gjson.ValidBytes(raw) {
		r.addf("%s is not valid JSON", what)
		return gjson.Result{}, false
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		r.addf("%s must be a JSON object", what)
		return gjson.Result{}, false
	}
	return root, true
}

// stringOrMarker maps a non-string JSON value to a value no hex check
// accepts, so the format rules treat it as malformed rather than missing.
func stringOrMarker(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	default:
		if !v.Exists() {
			return ""
		}
		return "?"
	}
}

func isInteger(v gjson.Result) bool {
	if v.Type != gjson.Number {
		return false
	}
	return !math.IsInf(v.Num, 0) && v.Num == math.Trunc(v.Num)
}

func isNonNegativeInteger(v gjson.Result) bool {
	return isInteger(v) && v.Num >= 0
}

func isStringArray(v gjson.Result) bool {
	if !v.IsArray() {
		return false
	}
	ok := true
	v.ForEach(func(_, item gjson.Result) bool {
		ok = item.Type == gjson.String
		return ok
	})
	return ok
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
