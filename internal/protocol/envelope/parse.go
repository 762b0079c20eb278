package envelope

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/danmuck/nostrkit/internal/protocol"
)

// Parser turns wire input into a Message. The zero value is lenient: a
// string that is not a JSON array is retried as comma-separated fields.
// Strict disables that fallback.
type Parser struct {
	Strict bool
	Log    *zerolog.Logger
}

var defaultParser = Parser{}

// Parse uses the lenient default parser.
func Parse(v any) (Message, error) {
	return defaultParser.Parse(v)
}

func (p Parser) logger() *zerolog.Logger {
	if p.Log != nil {
		return p.Log
	}
	nop := zerolog.Nop()
	return &nop
}

// Parse accepts a string, []byte, json.RawMessage, []any or []string.
func (p Parser) Parse(v any) (Message, error) {
	var (
		items []gjson.Result
		err   error
	)
	switch in := v.(type) {
	case string:
		items, err = p.split(in)
	case []byte:
		items, err = p.split(string(in))
	case json.RawMessage:
		items, err = p.split(string(in))
	case []any:
		items, err = fromValues(in)
	case []string:
		items = make([]gjson.Result, len(in))
		for i, s := range in {
			items[i] = stringResult(s)
		}
	default:
		return nil, protocol.Errorf(protocol.CodeInvalidMessage, "invalid relay message: unsupported input %T", v)
	}
	if err != nil {
		return nil, err
	}
	return p.dispatch(items)
}

func (p Parser) split(s string) ([]gjson.Result, error) {
	if gjson.Valid(s) {
		if root := gjson.Parse(s); root.IsArray() {
			return root.Array(), nil
		}
	}
	if p.Strict || !strings.Contains(s, ",") {
		return nil, protocol.NewError(protocol.CodeInvalidMessage, "invalid relay message")
	}
	p.logger().Debug().Str("input", s).Msg("envelope: comma-separated fallback")
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	parts := strings.Split(trimmed, ",")
	items := make([]gjson.Result, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if len(part) >= 2 && part[0] == '"' && part[len(part)-1] == '"' {
			part = part[1 : len(part)-1]
		}
		items[i] = stringResult(part)
	}
	return items, nil
}

func fromValues(values []any) ([]gjson.Result, error) {
	items := make([]gjson.Result, len(values))
	for i, v := range values {
		if s, ok := v.(string); ok {
			items[i] = stringResult(s)
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, protocol.Wrap(protocol.CodeInvalidMessage, "invalid relay message: element "+strconv.Itoa(i), err)
		}
		items[i] = gjson.ParseBytes(b)
	}
	return items, nil
}

func stringResult(s string) gjson.Result {
	return gjson.Result{Type: gjson.String, Str: s, Raw: strconv.Quote(s)}
}

func (p Parser) dispatch(items []gjson.Result) (Message, error) {
	if len(items) == 0 {
		return nil, protocol.NewError(protocol.CodeInvalidMessage, "invalid relay message: empty array")
	}
	head := items[0]
	label := Label(head.Str)
	if _, ok := labels[label]; head.Type != gjson.String || !ok {
		return nil, protocol.Errorf(protocol.CodeUnknownMessageType, "unknown message type %s", head.Raw)
	}
	payload := items[1:]
	p.logger().Debug().Str("label", string(label)).Int("payload", len(payload)).Msg("envelope: parse")

	switch label {
	case LabelEvent:
		return parseEvent(payload)
	case LabelReq:
		return parseReq(payload)
	case LabelClose:
		return parseClose(payload)
	case LabelNotice:
		if len(payload) < 1 {
			return nil, protocol.NewError(protocol.CodeInvalidMessage, "NOTICE message missing text")
		}
		return NoticeMessage{Message: coerceString(payload[0])}, nil
	case LabelEOSE:
		if len(payload) < 1 {
			return nil, protocol.NewError(protocol.CodeInvalidMessage, "EOSE message missing subscription ID")
		}
		return EOSEMessage{SubscriptionID: coerceString(payload[0])}, nil
	case LabelOK:
		return parseOK(payload)
	default:
		return parseAuth(payload)
	}
}

func parseEvent(payload []gjson.Result) (Message, error) {
	switch len(payload) {
	case 0:
		return nil, protocol.NewError(protocol.CodeInvalidMessage, "EVENT message missing event")
	case 1:
		evt, err := decodeEvent(LabelEvent, payload[0])
		if err != nil {
			return nil, err
		}
		return EventMessage{Event: evt}, nil
	default:
		if payload[0].Type != gjson.String {
			return nil, protocol.NewError(protocol.CodeInvalidMessage, "EVENT subscription ID must be a string")
		}
		evt, err := decodeEvent(LabelEvent, payload[1])
		if err != nil {
			return nil, err
		}
		return EventMessage{SubscriptionID: payload[0].Str, Event: evt}, nil
	}
}

func parseReq(payload []gjson.Result) (Message, error) {
	if len(payload) < 2 {
		return nil, protocol.NewError(protocol.CodeInvalidMessage, "REQ message missing subscription ID or filters")
	}
	if payload[0].Type != gjson.String {
		return nil, protocol.NewError(protocol.CodeInvalidMessage, "REQ subscription ID must be a string")
	}
	msg := ReqMessage{
		SubscriptionID: payload[0].Str,
		Filters:        make([]protocol.Filter, 0, len(payload)-1),
	}
	for i, item := range payload[1:] {
		raw, ok := objectBytes(item)
		if !ok {
			return nil, protocol.Errorf(protocol.CodeInvalidMessage, "REQ filter %d must be an object", i)
		}
		var f protocol.Filter
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, protocol.Wrap(protocol.CodeInvalidMessage, "REQ filter "+strconv.Itoa(i)+" is malformed", err)
		}
		msg.Filters = append(msg.Filters, f)
	}
	return msg, nil
}

func parseClose(payload []gjson.Result) (Message, error) {
	if len(payload) != 1 {
		return nil, protocol.Errorf(protocol.CodeInvalidMessage, "CLOSE message requires exactly one subscription ID, got %d elements", len(payload))
	}
	if payload[0].Type != gjson.String {
		return nil, protocol.NewError(protocol.CodeInvalidMessage, "CLOSE subscription ID must be a string")
	}
	return CloseMessage{SubscriptionID: payload[0].Str}, nil
}

func parseOK(payload []gjson.Result) (Message, error) {
	if len(payload) < 2 {
		return nil, protocol.NewError(protocol.CodeInvalidMessage, "OK message missing event ID or status")
	}
	accepted, ok := coerceBool(payload[1])
	if !ok {
		return nil, protocol.Errorf(protocol.CodeInvalidMessage, "OK status must be a boolean, got %s", payload[1].Raw)
	}
	msg := OKMessage{EventID: coerceString(payload[0]), Accepted: accepted}
	if len(payload) > 2 {
		msg.Reason = coerceString(payload[2])
	}
	return msg, nil
}

func parseAuth(payload []gjson.Result) (Message, error) {
	if len(payload) < 1 {
		return nil, protocol.NewError(protocol.CodeInvalidMessage, "AUTH message missing challenge")
	}
	if payload[0].IsObject() {
		evt, err := decodeEvent(LabelAuth, payload[0])
		if err != nil {
			return nil, err
		}
		return AuthMessage{Event: &evt}, nil
	}
	if payload[0].Type != gjson.String {
		return nil, protocol.NewError(protocol.CodeInvalidMessage, "AUTH challenge must be a string")
	}
	return AuthMessage{Challenge: payload[0].Str}, nil
}

func decodeEvent(label Label, item gjson.Result) (protocol.Event, error) {
	raw, ok := objectBytes(item)
	if !ok {
		return protocol.Event{}, protocol.Errorf(protocol.CodeInvalidMessage, "%s message event must be an object", label)
	}
	var evt protocol.Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return protocol.Event{}, protocol.Wrap(protocol.CodeInvalidMessage, string(label)+" message has a malformed event", err)
	}
	return evt, nil
}

// objectBytes returns the JSON of an object element, decoding one level of
// string encoding first.
func objectBytes(item gjson.Result) ([]byte, bool) {
	if item.Type == gjson.String {
		if !gjson.Valid(item.Str) {
			return nil, false
		}
		item = gjson.Parse(item.Str)
	}
	if !item.IsObject() {
		return nil, false
	}
	return []byte(item.Raw), true
}

func coerceString(item gjson.Result) string {
	if item.Type == gjson.String {
		return item.Str
	}
	return item.Raw
}

func coerceBool(item gjson.Result) (bool, bool) {
	switch item.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	case gjson.String:
		switch item.Str {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}
