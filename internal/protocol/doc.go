// Package protocol owns the Nostr event contract and its integrity primitives.
//
// Ownership boundary:
// - hex primitives and the error taxonomy shared by every sub-package
// - event, tag, kind, filter and subscription types
// - canonical serialization and id derivation
// - signature binding over the derived id
//
// Sub-packages build on these: tlv and nip19 for shareable identifiers,
// schema for validation, envelope for relay messages, nip04 for encrypted
// direct messages.
package protocol
