// Package nip19 encodes keys, ids and pointers as bech32 entities.
//
// Bare entities (npub, nsec, note) carry 32 raw bytes. nrelay carries a
// relay URL. nprofile, nevent and naddr carry a TLV payload (see package
// tlv). Unknown TLV types are skipped on decode so newer encoders can add
// records without breaking older decoders.
package nip19

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/danmuck/nostrkit/internal/protocol"
)

// MaxLength bounds encoded entities; TLV payloads exceed bech32's usual 90.
const MaxLength = 1000

// Prefix is the human-readable part of an entity.
type Prefix string

const (
	PrefixPublicKey Prefix = "npub"
	PrefixSecretKey Prefix = "nsec"
	PrefixNote      Prefix = "note"
	PrefixRelay     Prefix = "nrelay"
	PrefixProfile   Prefix = "nprofile"
	PrefixEvent     Prefix = "nevent"
	PrefixAddress   Prefix = "naddr"
)

var knownPrefixes = map[Prefix]struct{}{
	PrefixPublicKey: {},
	PrefixSecretKey: {},
	PrefixNote:      {},
	PrefixRelay:     {},
	PrefixProfile:   {},
	PrefixEvent:     {},
	PrefixAddress:   {},
}

// Entity is one of PublicKey, SecretKey, Note, Relay, ProfilePointer,
// EventPointer or AddressPointer.
type Entity interface {
	Prefix() Prefix
	isEntity()
}

// PublicKey is a hex public key (npub).
type PublicKey string

// SecretKey is a hex private key (nsec).
type SecretKey string

// Note is a hex event id (note).
type Note string

// Relay is a ws/wss relay URL (nrelay).
type Relay string

// ProfilePointer references a profile (nprofile).
type ProfilePointer struct {
	PublicKey string   `json:"pubkey"`
	Relays    []string `json:"relays,omitempty"`
}

// EventPointer references an event (nevent). Author and Kind are optional.
type EventPointer struct {
	ID     string         `json:"id"`
	Relays []string       `json:"relays,omitempty"`
	Author string         `json:"author,omitempty"`
	Kind   *protocol.Kind `json:"kind,omitempty"`
}

// AddressPointer references a parameterized replaceable event (naddr).
type AddressPointer struct {
	PublicKey  string        `json:"pubkey"`
	Kind       protocol.Kind `json:"kind"`
	Identifier string        `json:"identifier"`
	Relays     []string      `json:"relays,omitempty"`
}

func (PublicKey) Prefix() Prefix      { return PrefixPublicKey }
func (SecretKey) Prefix() Prefix      { return PrefixSecretKey }
func (Note) Prefix() Prefix           { return PrefixNote }
func (Relay) Prefix() Prefix          { return PrefixRelay }
func (ProfilePointer) Prefix() Prefix { return PrefixProfile }
func (EventPointer) Prefix() Prefix   { return PrefixEvent }
func (AddressPointer) Prefix() Prefix { return PrefixAddress }

func (PublicKey) isEntity()      {}
func (SecretKey) isEntity()      {}
func (Note) isEntity()           {}
func (Relay) isEntity()          {}
func (ProfilePointer) isEntity() {}
func (EventPointer) isEntity()   {}
func (AddressPointer) isEntity() {}

// Encode dispatches on the entity variant.
func Encode(e Entity) (string, error) {
	switch v := e.(type) {
	case PublicKey:
		return EncodePublicKey(string(v))
	case SecretKey:
		return EncodeSecretKey(string(v))
	case Note:
		return EncodeNote(string(v))
	case Relay:
		return EncodeRelay(string(v))
	case ProfilePointer:
		return EncodeProfile(v)
	case *ProfilePointer:
		return EncodeProfile(*v)
	case EventPointer:
		return EncodeEvent(v)
	case *EventPointer:
		return EncodeEvent(*v)
	case AddressPointer:
		return EncodeAddress(v)
	case *AddressPointer:
		return EncodeAddress(*v)
	default:
		return "", protocol.Errorf(protocol.CodeUnknownPrefix, "unknown prefix: unsupported entity %T", e)
	}
}

// Decode parses any of the seven entity kinds. A string without a bech32
// separator fails with ErrInvalidBech32; a well-formed string with a
// foreign prefix fails with ErrUnknownPrefix.
func Decode(s string) (Entity, error) {
	sep := strings.LastIndexByte(s, '1')
	if sep < 1 {
		return nil, protocol.NewError(protocol.CodeInvalidBech32, "invalid bech32 string: missing separator")
	}
	prefix := Prefix(strings.ToLower(s[:sep]))
	if _, ok := knownPrefixes[prefix]; !ok {
		return nil, protocol.Errorf(protocol.CodeUnknownPrefix, "unknown prefix %q", string(prefix))
	}

	data, err := decodeBech32(s, prefix)
	if err != nil {
		return nil, err
	}

	switch prefix {
	case PrefixPublicKey, PrefixSecretKey, PrefixNote:
		return decodeBare(prefix, data)
	case PrefixRelay:
		url := string(data)
		if err := ValidateRelayURL(url); err != nil {
			return nil, err
		}
		return Relay(url), nil
	case PrefixProfile:
		return decodeProfile(data)
	case PrefixEvent:
		return decodeEvent(data)
	default:
		return decodeAddress(data)
	}
}

func decodeBare(prefix Prefix, data []byte) (Entity, error) {
	if len(data) != 32 {
		return nil, protocol.Errorf(protocol.CodeInvalidLength, "invalid %s payload: expected 32 bytes, got %d", prefix, len(data))
	}
	value := protocol.EncodeHex(data)
	switch prefix {
	case PrefixSecretKey:
		return SecretKey(value), nil
	case PrefixNote:
		return Note(value), nil
	default:
		return PublicKey(value), nil
	}
}

func encodeBech32(prefix Prefix, payload []byte) (string, error) {
	words, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", protocol.Wrap(protocol.CodeInvalidBech32, "invalid bech32 payload", err)
	}
	s, err := bech32.Encode(string(prefix), words)
	if err != nil {
		return "", protocol.Wrap(protocol.CodeInvalidBech32, "invalid bech32 string", err)
	}
	if len(s) > MaxLength {
		return "", protocol.Errorf(protocol.CodeEntityTooLong, "%s entity is %d characters, max %d", prefix, len(s), MaxLength)
	}
	return s, nil
}

func decodeBech32(s string, prefix Prefix) ([]byte, error) {
	if len(s) > MaxLength {
		return nil, protocol.Errorf(protocol.CodeEntityTooLong, "%s entity is %d characters, max %d", prefix, len(s), MaxLength)
	}
	hrp, words, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, protocol.Wrap(protocol.CodeInvalidBech32, "invalid bech32 string", err)
	}
	if Prefix(hrp) != prefix {
		return nil, protocol.Errorf(protocol.CodeInvalidBech32, "invalid bech32 string: prefix %q decoded as %q", prefix, hrp)
	}
	data, err := bech32.ConvertBits(words, 5, 8, false)
	if err != nil {
		return nil, protocol.Wrap(protocol.CodeInvalidBech32, "invalid bech32 string", err)
	}
	return data, nil
}

func encodeBare(prefix Prefix, hexValue string) (string, error) {
	b, err := protocol.DecodeHex(hexValue, 32)
	if err != nil {
		return "", err
	}
	return encodeBech32(prefix, b)
}

// EncodePublicKey encodes a 64-character hex public key as npub.
func EncodePublicKey(pubkeyHex string) (string, error) {
	return encodeBare(PrefixPublicKey, pubkeyHex)
}

// EncodeSecretKey encodes a 64-character hex private key as nsec.
func EncodeSecretKey(privateKeyHex string) (string, error) {
	return encodeBare(PrefixSecretKey, privateKeyHex)
}

// EncodeNote encodes a 64-character hex event id as note.
func EncodeNote(eventIDHex string) (string, error) {
	return encodeBare(PrefixNote, eventIDHex)
}

// EncodeRelay encodes a ws/wss relay URL as nrelay.
func EncodeRelay(url string) (string, error) {
	if err := ValidateRelayURL(url); err != nil {
		return "", err
	}
	return encodeBech32(PrefixRelay, []byte(url))
}
