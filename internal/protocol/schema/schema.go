// Package schema decides whether events, filters and subscriptions are
// well formed.
//
// Validation never fails fast: every rule runs and each violation is
// reported as one human-readable line, so a caller can show all defects of
// an input at once. Results are values; Result.Err converts a failing result
// into a protocol error when a caller does want to gate on it.
package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/nostrkit/internal/clock"
	"github.com/danmuck/nostrkit/internal/protocol"
)

const (
	DefaultMaxContentLength = 64000
	DefaultMaxTags          = 2000
	DefaultMaxFutureDrift   = time.Hour

	// MaxSubscriptionIDLength is the longest subscription id relays accept.
	MaxSubscriptionIDLength = 64
)

// Limits bounds event size and clock skew. Content length is counted in
// UTF-16 code units to agree with browser clients.
type Limits struct {
	MaxContentLength int
	MaxTags          int
	MaxFutureDrift   time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		MaxContentLength: DefaultMaxContentLength,
		MaxTags:          DefaultMaxTags,
		MaxFutureDrift:   DefaultMaxFutureDrift,
	}
}

// Result lists every violated rule. Valid is true exactly when Errors is empty.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Err returns nil for a valid result and a VALIDATION_FAILED error otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return protocol.Errorf(protocol.CodeValidationFailed, "validation failed: %s", strings.Join(r.Errors, "; "))
}

type report struct {
	errs []string
}

func (r *report) addf(format string, args ...any) {
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

func (r *report) merge(prefix string, other Result) {
	for _, e := range other.Errors {
		r.errs = append(r.errs, prefix+e)
	}
}

func (r *report) result() Result {
	errs := r.errs
	if errs == nil {
		errs = []string{}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

// Validator holds the limits and capabilities rules are checked against.
// The zero value is not usable; build one with New.
type Validator struct {
	limits Limits
	clock  clock.Clock
	signer protocol.Signer
	log    zerolog.Logger
}

type Option func(*Validator)

func WithLimits(l Limits) Option {
	return func(v *Validator) { v.limits = l }
}

func WithClock(c clock.Clock) Option {
	return func(v *Validator) { v.clock = c }
}

func WithSigner(s protocol.Signer) Option {
	return func(v *Validator) { v.signer = s }
}

func WithLogger(l zerolog.Logger) Option {
	return func(v *Validator) { v.log = l }
}

func New(opts ...Option) Validator {
	v := Validator{
		limits: DefaultLimits(),
		clock:  clock.Time,
		signer: protocol.Schnorr,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&v)
	}
	return v
}

func (v Validator) Limits() Limits {
	return v.limits
}

func (v Validator) finish(check string, r *report) Result {
	res := r.result()
	if res.Valid {
		v.log.Debug().Str("check", check).Msg("schema: valid")
	} else {
		v.log.Debug().Str("check", check).Strs("errors", res.Errors).Msg("schema: invalid")
	}
	return res
}

// Default uses DefaultLimits, the wall clock and the schnorr signer.
var Default = New()

func ValidateEvent(evt protocol.Event) Result {
	return Default.Event(evt)
}

func ValidateSignedEvent(evt protocol.Event) Result {
	return Default.SignedEvent(evt)
}

func ValidateFilter(f protocol.Filter) Result {
	return Default.Filter(f)
}

func ValidateSubscription(s protocol.Subscription) Result {
	return Default.Subscription(s)
}

func ValidateEventJSON(raw []byte) Result {
	return Default.EventJSON(raw)
}

func ValidateSignedEventJSON(raw []byte) Result {
	return Default.SignedEventJSON(raw)
}

func ValidateFilterJSON(raw []byte) Result {
	return Default.FilterJSON(raw)
}

func ValidateSubscriptionJSON(raw []byte) Result {
	return Default.SubscriptionJSON(raw)
}
