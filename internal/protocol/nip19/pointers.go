package nip19

import (
	"net/url"
	"strings"

	"github.com/danmuck/nostrkit/internal/protocol"
	"github.com/danmuck/nostrkit/internal/protocol/tlv"
)

// ValidateRelayURL accepts absolute ws:// and wss:// URLs with a host.
func ValidateRelayURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return protocol.Wrap(protocol.CodeInvalidRelayURL, "invalid relay url "+raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "ws" && scheme != "wss" {
		return protocol.Errorf(protocol.CodeInvalidRelayURL, "invalid relay url %q: scheme must be ws or wss", raw)
	}
	if u.Host == "" {
		return protocol.Errorf(protocol.CodeInvalidRelayURL, "invalid relay url %q: missing host", raw)
	}
	return nil
}

// EncodeProfile writes: 0 pubkey, 1 relays.
func EncodeProfile(p ProfilePointer) (string, error) {
	pub, err := protocol.DecodeHex(p.PublicKey, protocol.PublicKeySize)
	if err != nil {
		return "", err
	}
	records := []tlv.Record{{Type: tlv.TypeSpecial, Value: pub}}
	if records, err = appendRelays(records, p.Relays); err != nil {
		return "", err
	}
	return encodeRecords(PrefixProfile, records)
}

// EncodeEvent writes: 0 id, 1 relays, 2 author, 3 kind.
func EncodeEvent(p EventPointer) (string, error) {
	id, err := protocol.DecodeHex(p.ID, protocol.IDSize)
	if err != nil {
		return "", err
	}
	records := []tlv.Record{{Type: tlv.TypeSpecial, Value: id}}
	if records, err = appendRelays(records, p.Relays); err != nil {
		return "", err
	}
	if p.Author != "" {
		author, err := protocol.DecodeHex(p.Author, protocol.PublicKeySize)
		if err != nil {
			return "", err
		}
		records = append(records, tlv.Record{Type: tlv.TypeAuthor, Value: author})
	}
	if p.Kind != nil {
		kind, err := kindBytes(*p.Kind)
		if err != nil {
			return "", err
		}
		records = append(records, tlv.Record{Type: tlv.TypeKind, Value: kind})
	}
	return encodeRecords(PrefixEvent, records)
}

// EncodeAddress writes: 0 author pubkey, 1 relays, 3 kind, 4 identifier.
func EncodeAddress(p AddressPointer) (string, error) {
	pub, err := protocol.DecodeHex(p.PublicKey, protocol.PublicKeySize)
	if err != nil {
		return "", err
	}
	records := []tlv.Record{{Type: tlv.TypeSpecial, Value: pub}}
	if records, err = appendRelays(records, p.Relays); err != nil {
		return "", err
	}
	kind, err := kindBytes(p.Kind)
	if err != nil {
		return "", err
	}
	records = append(records,
		tlv.Record{Type: tlv.TypeKind, Value: kind},
		tlv.Record{Type: tlv.TypeIdentifier, Value: []byte(p.Identifier)},
	)
	return encodeRecords(PrefixAddress, records)
}

func appendRelays(records []tlv.Record, relays []string) ([]tlv.Record, error) {
	for _, relay := range relays {
		if err := ValidateRelayURL(relay); err != nil {
			return nil, err
		}
		records = append(records, tlv.Record{Type: tlv.TypeRelay, Value: []byte(relay)})
	}
	return records, nil
}

// kindBytes renders kinds as 4-byte big-endian for both nevent and naddr.
func kindBytes(k protocol.Kind) ([]byte, error) {
	if k < 0 || int64(k) > int64(^uint32(0)) {
		return nil, protocol.Errorf(protocol.CodeInvalidTLV, "invalid tlv payload: kind %d out of range", k)
	}
	return tlv.U32Bytes(uint32(k)), nil
}

func encodeRecords(prefix Prefix, records []tlv.Record) (string, error) {
	payload, err := tlv.EncodeRecords(records)
	if err != nil {
		return "", protocol.Wrap(protocol.CodeInvalidTLV, "invalid "+string(prefix)+" tlv payload", err)
	}
	return encodeBech32(prefix, payload)
}

func decodeRecords(prefix Prefix, data []byte) ([]tlv.Record, error) {
	records, err := tlv.DecodeRecords(data)
	if err != nil {
		return nil, protocol.Wrap(protocol.CodeInvalidTLV, "invalid tlv payload in "+string(prefix), err)
	}
	return records, nil
}

func requireHex(prefix Prefix, records []tlv.Record, t uint8, name string) (string, error) {
	r, ok := tlv.First(records, t)
	if !ok {
		return "", protocol.Errorf(protocol.CodeMissingTLVRecord, "invalid %s: missing %s (tlv type %d)", prefix, name, t)
	}
	return hexRecord(prefix, r, name)
}

func hexRecord(prefix Prefix, r tlv.Record, name string) (string, error) {
	if len(r.Value) != 32 {
		return "", protocol.Errorf(protocol.CodeInvalidLength, "invalid %s: %s must be 32 bytes, got %d", prefix, name, len(r.Value))
	}
	return protocol.EncodeHex(r.Value), nil
}

func decodeRelays(records []tlv.Record) ([]string, error) {
	values := tlv.All(records, tlv.TypeRelay)
	if len(values) == 0 {
		return nil, nil
	}
	relays := make([]string, 0, len(values))
	for _, v := range values {
		relay := string(v)
		if err := ValidateRelayURL(relay); err != nil {
			return nil, err
		}
		relays = append(relays, relay)
	}
	return relays, nil
}

func decodeKind(prefix Prefix, r tlv.Record) (protocol.Kind, error) {
	v, err := tlv.U32FromBytes(r.Value)
	if err != nil {
		return 0, protocol.Wrap(protocol.CodeInvalidTLV, "invalid "+string(prefix)+" kind", err)
	}
	return protocol.Kind(v), nil
}

func decodeProfile(data []byte) (Entity, error) {
	records, err := decodeRecords(PrefixProfile, data)
	if err != nil {
		return nil, err
	}
	pub, err := requireHex(PrefixProfile, records, tlv.TypeSpecial, "pubkey")
	if err != nil {
		return nil, err
	}
	relays, err := decodeRelays(records)
	if err != nil {
		return nil, err
	}
	return ProfilePointer{PublicKey: pub, Relays: relays}, nil
}

func decodeEvent(data []byte) (Entity, error) {
	records, err := decodeRecords(PrefixEvent, data)
	if err != nil {
		return nil, err
	}
	id, err := requireHex(PrefixEvent, records, tlv.TypeSpecial, "event id")
	if err != nil {
		return nil, err
	}
	relays, err := decodeRelays(records)
	if err != nil {
		return nil, err
	}
	p := EventPointer{ID: id, Relays: relays}
	if r, ok := tlv.First(records, tlv.TypeAuthor); ok {
		if p.Author, err = hexRecord(PrefixEvent, r, "author"); err != nil {
			return nil, err
		}
	}
	if r, ok := tlv.First(records, tlv.TypeKind); ok {
		kind, err := decodeKind(PrefixEvent, r)
		if err != nil {
			return nil, err
		}
		p.Kind = &kind
	}
	return p, nil
}

func decodeAddress(data []byte) (Entity, error) {
	records, err := decodeRecords(PrefixAddress, data)
	if err != nil {
		return nil, err
	}
	pub, err := requireHex(PrefixAddress, records, tlv.TypeSpecial, "author pubkey")
	if err != nil {
		return nil, err
	}
	relays, err := decodeRelays(records)
	if err != nil {
		return nil, err
	}
	r, ok := tlv.First(records, tlv.TypeKind)
	if !ok {
		return nil, protocol.Errorf(protocol.CodeMissingTLVRecord, "invalid %s: missing kind (tlv type %d)", PrefixAddress, tlv.TypeKind)
	}
	kind, err := decodeKind(PrefixAddress, r)
	if err != nil {
		return nil, err
	}
	p := AddressPointer{PublicKey: pub, Kind: kind, Relays: relays}
	if r, ok := tlv.First(records, tlv.TypeIdentifier); ok {
		p.Identifier = string(r.Value)
	}
	return p, nil
}
