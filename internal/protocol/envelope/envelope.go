// Package envelope parses and formats the JSON arrays exchanged between
// clients and relays: ["EVENT", ...], ["REQ", ...], ["CLOSE", ...],
// ["NOTICE", ...], ["EOSE", ...], ["OK", ...] and ["AUTH", ...].
//
// Format functions build the array shape without validating their
// arguments; run the schema validator first when the input is untrusted.
package envelope

import (
	"bytes"
	"encoding/json"

	"github.com/danmuck/nostrkit/internal/protocol"
)

// Label is the first element of a relay message.
type Label string

const (
	LabelEvent  Label = "EVENT"
	LabelReq    Label = "REQ"
	LabelClose  Label = "CLOSE"
	LabelNotice Label = "NOTICE"
	LabelEOSE   Label = "EOSE"
	LabelOK     Label = "OK"
	LabelAuth   Label = "AUTH"
)

var labels = map[Label]struct{}{
	LabelEvent:  {},
	LabelReq:    {},
	LabelClose:  {},
	LabelNotice: {},
	LabelEOSE:   {},
	LabelOK:     {},
	LabelAuth:   {},
}

// Message is one of EventMessage, ReqMessage, CloseMessage, NoticeMessage,
// EOSEMessage, OKMessage or AuthMessage.
type Message interface {
	Label() Label
	Array() []any
}

// EventMessage carries an event. SubscriptionID is empty for the
// client-to-relay form ["EVENT", event].
type EventMessage struct {
	SubscriptionID string         `json:"subscription_id,omitempty"`
	Event          protocol.Event `json:"event"`
}

type ReqMessage struct {
	SubscriptionID string            `json:"subscription_id"`
	Filters        []protocol.Filter `json:"filters"`
}

type CloseMessage struct {
	SubscriptionID string `json:"subscription_id"`
}

type NoticeMessage struct {
	Message string `json:"message"`
}

type EOSEMessage struct {
	SubscriptionID string `json:"subscription_id"`
}

type OKMessage struct {
	EventID  string `json:"event_id"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

// AuthMessage is either a relay challenge or, when Event is set, the
// client's signed authentication event.
type AuthMessage struct {
	Challenge string          `json:"challenge,omitempty"`
	Event     *protocol.Event `json:"event,omitempty"`
}

func (EventMessage) Label() Label  { return LabelEvent }
func (ReqMessage) Label() Label    { return LabelReq }
func (CloseMessage) Label() Label  { return LabelClose }
func (NoticeMessage) Label() Label { return LabelNotice }
func (EOSEMessage) Label() Label   { return LabelEOSE }
func (OKMessage) Label() Label     { return LabelOK }
func (AuthMessage) Label() Label   { return LabelAuth }

func (m EventMessage) Array() []any {
	if m.SubscriptionID == "" {
		return FormatEvent(m.Event)
	}
	return FormatSubscriptionEvent(m.SubscriptionID, m.Event)
}

func (m ReqMessage) Array() []any    { return FormatReq(m.SubscriptionID, m.Filters...) }
func (m CloseMessage) Array() []any  { return FormatClose(m.SubscriptionID) }
func (m NoticeMessage) Array() []any { return FormatNotice(m.Message) }
func (m EOSEMessage) Array() []any   { return FormatEOSE(m.SubscriptionID) }
func (m OKMessage) Array() []any     { return FormatOK(m.EventID, m.Accepted, m.Reason) }

func (m AuthMessage) Array() []any {
	if m.Event != nil {
		return FormatAuthEvent(*m.Event)
	}
	return FormatAuth(m.Challenge)
}

// Subscription returns the id and filters as a protocol.Subscription.
func (m ReqMessage) Subscription() protocol.Subscription {
	return protocol.Subscription{ID: m.SubscriptionID, Filters: m.Filters}
}

func FormatEvent(evt protocol.Event) []any {
	return []any{string(LabelEvent), evt}
}

func FormatSubscriptionEvent(subscriptionID string, evt protocol.Event) []any {
	return []any{string(LabelEvent), subscriptionID, evt}
}

func FormatReq(subscriptionID string, filters ...protocol.Filter) []any {
	out := make([]any, 0, 2+len(filters))
	out = append(out, string(LabelReq), subscriptionID)
	for _, f := range filters {
		out = append(out, f)
	}
	return out
}

func FormatClose(subscriptionID string) []any {
	return []any{string(LabelClose), subscriptionID}
}

func FormatNotice(message string) []any {
	return []any{string(LabelNotice), message}
}

func FormatEOSE(subscriptionID string) []any {
	return []any{string(LabelEOSE), subscriptionID}
}

func FormatOK(eventID string, accepted bool, reason string) []any {
	return []any{string(LabelOK), eventID, accepted, reason}
}

func FormatAuth(challenge string) []any {
	return []any{string(LabelAuth), challenge}
}

func FormatAuthEvent(evt protocol.Event) []any {
	return []any{string(LabelAuth), evt}
}

// Marshal renders m as a JSON array without HTML escaping.
func Marshal(m Message) ([]byte, error) {
	return MarshalArray(m.Array())
}

func MarshalArray(arr []any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(arr); err != nil {
		return nil, protocol.Wrap(protocol.CodeInvalidMessage, "encode relay message", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
