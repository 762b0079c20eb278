package nip19

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danmuck/nostrkit/internal/protocol"
)

const (
	generatorPub = "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	profilePub   = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"
	sampleID     = "33c758466a465ce9df004b6d6e3abb039d593277784c276c49725a622794eca0"

	generatorNpub = "npub10xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqpkge6d"
	sampleProfile = "nprofile1qqsrhuxx8l9ex335q7he0f09aej04zpazpl0ne2cgukyawd24mayt8gpp4mhxue69uhhytnc9e3k7mgpz4mhxue69uhkg6nzv9ejuumpv34kytnrdaksjlyr9p"
	sampleRelay   = "nrelay1waehxw309aex2mrp0yhx27rpd4cxcefwvdhk6qt3eyg"
	sampleEvent   = "nevent1qqsr836cge4yvh8fmuqykmtw82as882exfmhsnp8d3yhyknzy72wegqpp4mhxue69uhhytnc9e3k7mgzypumuen7l8wthtz45p3ftn58pvrs9xlumvkuu2xet8egzkcklqtesqcyqqqqqqgmrn5gr"
	sampleAddress = "naddr1qqs8n0nx0muaewav2ksx99wwsu9swq5mlndjmn3gm9vl9q2mzmup0xqpp4mhxue69uhhytnc9e3k7mgrqsqqqa28qs9x67fdv9e8g6trd3jscaxgut"
)

func TestEncodePublicKeyVector(t *testing.T) {
	got, err := EncodePublicKey(generatorPub)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got != generatorNpub {
		t.Fatalf("npub mismatch:\n got %s\nwant %s", got, generatorNpub)
	}
	e, err := Decode(got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e != PublicKey(generatorPub) {
		t.Fatalf("unexpected entity: %#v", e)
	}
}

func TestBareEntitiesRoundTrip(t *testing.T) {
	cases := []Entity{
		PublicKey(generatorPub),
		SecretKey("0000000000000000000000000000000000000000000000000000000000000001"),
		Note(sampleID),
	}
	for _, in := range cases {
		s, err := Encode(in)
		if err != nil {
			t.Fatalf("encode %T: %v", in, err)
		}
		if !strings.HasPrefix(s, string(in.Prefix())+"1") {
			t.Fatalf("expected %s prefix, got %s", in.Prefix(), s)
		}
		out, err := Decode(s)
		if err != nil {
			t.Fatalf("decode %s: %v", s, err)
		}
		if out != in {
			t.Fatalf("round trip mismatch: got %#v want %#v", out, in)
		}
	}
}

func TestDecodeUppercaseHexNormalizes(t *testing.T) {
	s, err := EncodeNote(strings.ToUpper(sampleID))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	e, err := Decode(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e != Note(sampleID) {
		t.Fatalf("expected lowercase id, got %#v", e)
	}
}

func TestEncodeBareRejectsWrongLength(t *testing.T) {
	if _, err := EncodePublicKey(generatorPub[:62]); !errors.Is(err, protocol.ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
	if _, err := EncodeNote("zz" + sampleID[2:]); !errors.Is(err, protocol.ErrInvalidHex) {
		t.Fatalf("expected ErrInvalidHex, got %v", err)
	}
}

func TestDecodeBareRejectsShortPayload(t *testing.T) {
	_, err := Decode("npub10xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hczuw7vmtn")
	if !errors.Is(err, protocol.ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}

func TestProfileVector(t *testing.T) {
	in := ProfilePointer{
		PublicKey: profilePub,
		Relays:    []string{"wss://r.x.com", "wss://djbas.sadkb.com"},
	}
	got, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got != sampleProfile {
		t.Fatalf("nprofile mismatch:\n got %s\nwant %s", got, sampleProfile)
	}
	out, err := Decode(sampleProfile)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestProfileWithoutRelays(t *testing.T) {
	s, err := EncodeProfile(ProfilePointer{PublicKey: profilePub})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p := out.(ProfilePointer)
	if p.PublicKey != profilePub || p.Relays != nil {
		t.Fatalf("unexpected profile: %#v", p)
	}
}

func TestProfilePreservesManyRelaysInOrder(t *testing.T) {
	relays := []string{
		"wss://a.example",
		"ws://b.example:7447",
		"wss://c.example/path",
		"wss://a.example",
		"wss://d.example",
	}
	s, err := EncodeProfile(ProfilePointer{PublicKey: profilePub, Relays: relays})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(relays, out.(ProfilePointer).Relays); diff != "" {
		t.Fatalf("relays mismatch (-want +got):\n%s", diff)
	}
}

func TestRelayVector(t *testing.T) {
	got, err := EncodeRelay("wss://relay.example.com")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got != sampleRelay {
		t.Fatalf("nrelay mismatch:\n got %s\nwant %s", got, sampleRelay)
	}
	out, err := Decode(got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != Relay("wss://relay.example.com") {
		t.Fatalf("unexpected entity: %#v", out)
	}
}

func TestRelaySchemeEnforced(t *testing.T) {
	if _, err := EncodeRelay("https://relay.example.com"); !errors.Is(err, protocol.ErrInvalidRelayURL) {
		t.Fatalf("expected ErrInvalidRelayURL on encode, got %v", err)
	}
	if _, err := Decode("nrelay1dp68gurn8ghj7un9d3shjtn90psk6urvv5hxxmmdql57a0"); !errors.Is(err, protocol.ErrInvalidRelayURL) {
		t.Fatalf("expected ErrInvalidRelayURL on decode, got %v", err)
	}
	if _, err := Decode("nprofile1qqs8n0nx0muaewav2ksx99wwsu9swq5mlndjmn3gm9vl9q2mzmup0xqppe58gars8ghj7u3w0qhxxmmdyrfrkw"); !errors.Is(err, protocol.ErrInvalidRelayURL) {
		t.Fatalf("expected ErrInvalidRelayURL for http relay hint, got %v", err)
	}
	_, err := EncodeProfile(ProfilePointer{PublicKey: profilePub, Relays: []string{"wss://"}})
	if !errors.Is(err, protocol.ErrInvalidRelayURL) {
		t.Fatalf("expected ErrInvalidRelayURL for missing host, got %v", err)
	}
	if protocol.ClassOf(err) != protocol.ClassEncoding {
		t.Fatalf("expected encoding class, got %q", protocol.ClassOf(err))
	}
}

func TestEventVector(t *testing.T) {
	kind := protocol.KindTextNote
	in := EventPointer{
		ID:     sampleID,
		Relays: []string{"wss://r.x.com"},
		Author: generatorPub,
		Kind:   &kind,
	}
	got, err := Encode(&in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got != sampleEvent {
		t.Fatalf("nevent mismatch:\n got %s\nwant %s", got, sampleEvent)
	}
	out, err := Decode(got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("event pointer mismatch (-want +got):\n%s", diff)
	}
}

func TestEventOptionalFieldsAbsent(t *testing.T) {
	s, err := EncodeEvent(EventPointer{ID: sampleID})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := Decode(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p := out.(EventPointer)
	if p.ID != sampleID || p.Author != "" || p.Kind != nil || p.Relays != nil {
		t.Fatalf("unexpected event pointer: %#v", p)
	}
}

func TestDecodeSkipsUnknownTLVTypes(t *testing.T) {
	// type 9 record sits between the id and the relay
	out, err := Decode("nevent1qqsr836cge4yvh8fmuqykmtw82as882exfmhsnp8d3yhyknzy72wegqfqdu8j7spp4mhxue69uhhytnc9e3k7mg3s593d")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p := out.(EventPointer)
	if p.ID != sampleID {
		t.Fatalf("unexpected id: %s", p.ID)
	}
	if diff := cmp.Diff([]string{"wss://r.x.com"}, p.Relays); diff != "" {
		t.Fatalf("relays mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeTruncatedTLV(t *testing.T) {
	_, err := Decode("nevent1qqsr836cge4yvh8fmuqykmtw82as882exfmhsnp8d3yhyknzy72wegqpxfmhxue69uhsgqm4tm")
	if !errors.Is(err, protocol.ErrInvalidTLV) {
		t.Fatalf("expected ErrInvalidTLV, got %v", err)
	}
	if protocol.ClassOf(err) != protocol.ClassEncoding {
		t.Fatalf("expected encoding class, got %q", protocol.ClassOf(err))
	}
}

func TestAddressVector(t *testing.T) {
	in := AddressPointer{
		PublicKey:  generatorPub,
		Kind:       protocol.KindLongFormContent,
		Identifier: "my-article",
		Relays:     []string{"wss://r.x.com"},
	}
	got, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got != sampleAddress {
		t.Fatalf("naddr mismatch:\n got %s\nwant %s", got, sampleAddress)
	}
	out, err := Decode(got)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("address mismatch (-want +got):\n%s", diff)
	}
}

func TestAddressAcceptsShortKindAndEmptyIdentifier(t *testing.T) {
	out, err := Decode("naddr1qqs8n0nx0muaewav2ksx99wwsu9swq5mlndjmn3gm9vl9q2mzmup0xqrqyrsgqqc42tjl")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p := out.(AddressPointer)
	if p.Kind != 7 || p.Identifier != "" || p.PublicKey != generatorPub {
		t.Fatalf("unexpected address: %#v", p)
	}
}

func TestAddressRequiresKind(t *testing.T) {
	// empty payload; encodeRecords bypasses EncodeAddress
	s, err := encodeRecords(PrefixAddress, nil)
	if err != nil {
		t.Fatalf("encode empty payload: %v", err)
	}
	if _, err := Decode(s); !errors.Is(err, protocol.ErrMissingTLVRecord) {
		t.Fatalf("expected ErrMissingTLVRecord, got %v", err)
	}
}

func TestDecodeInvalidInputs(t *testing.T) {
	if _, err := Decode("invalid"); !errors.Is(err, protocol.ErrInvalidBech32) {
		t.Fatalf("expected ErrInvalidBech32, got %v", err)
	}
	if _, err := Decode("zzzz" + strings.TrimPrefix(generatorNpub, "npub")); !errors.Is(err, protocol.ErrUnknownPrefix) {
		t.Fatalf("expected ErrUnknownPrefix, got %v", err)
	}
	corrupt := generatorNpub[:len(generatorNpub)-1] + "q"
	if _, err := Decode(corrupt); !errors.Is(err, protocol.ErrInvalidBech32) {
		t.Fatalf("expected ErrInvalidBech32 for bad checksum, got %v", err)
	}
	if _, err := Decode("npub1" + strings.Repeat("q", MaxLength)); !errors.Is(err, protocol.ErrEntityTooLong) {
		t.Fatalf("expected ErrEntityTooLong, got %v", err)
	}
}

func TestEncodeRejectsOversizedEntity(t *testing.T) {
	relays := make([]string, 40)
	for i := range relays {
		relays[i] = "wss://r.x.com"
	}
	_, err := EncodeProfile(ProfilePointer{PublicKey: profilePub, Relays: relays})
	if !errors.Is(err, protocol.ErrEntityTooLong) {
		t.Fatalf("expected ErrEntityTooLong, got %v", err)
	}
}

func TestEncodeRejectsOversizedRecord(t *testing.T) {
	_, err := EncodeAddress(AddressPointer{
		PublicKey:  generatorPub,
		Kind:       protocol.KindLongFormContent,
		Identifier: strings.Repeat("x", 256),
	})
	if !errors.Is(err, protocol.ErrInvalidTLV) {
		t.Fatalf("expected ErrInvalidTLV, got %v", err)
	}
}
