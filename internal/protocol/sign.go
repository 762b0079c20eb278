package protocol

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// Signer is the signature capability events are bound with.
type Signer interface {
	// PublicKey derives the 32-byte public key for a 32-byte private key.
	PublicKey(privateKey []byte) ([]byte, error)
	// Sign signs a 32-byte message and returns a 64-byte signature.
	Sign(msg, privateKey []byte) ([]byte, error)
	// Verify reports whether sig is valid for msg under publicKey.
	Verify(sig, msg, publicKey []byte) bool
}

// Schnorr is the BIP-340 secp256k1 signer used by Nostr.
var Schnorr Signer = schnorrSigner{}

type schnorrSigner struct{}

func (schnorrSigner) PublicKey(privateKey []byte) ([]byte, error) {
	priv, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	return schnorr.SerializePubKey(priv.PubKey()), nil
}

func (schnorrSigner) Sign(msg, privateKey []byte) ([]byte, error) {
	priv, err := parsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	sig, err := schnorr.Sign(priv, msg)
	if err != nil {
		return nil, Wrap(CodeSigningFailed, "schnorr sign failed", err)
	}
	return sig.Serialize(), nil
}

func (schnorrSigner) Verify(sig, msg, publicKey []byte) bool {
	pub, err := schnorr.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	s, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}
	return s.Verify(msg, pub)
}

// parsePrivateKey rejects keys that are zero or not below the curve order
// instead of letting them reduce silently.
func parsePrivateKey(b []byte) (*btcec.PrivateKey, error) {
	if len(b) != PrivateKeySize {
		return nil, Errorf(CodeInvalidPrivateKey, "invalid private key: expected %d bytes, got %d", PrivateKeySize, len(b))
	}
	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(b); overflow || scalar.IsZero() {
		return nil, NewError(CodeInvalidPrivateKey, "invalid private key: out of range for secp256k1")
	}
	return btcec.PrivKeyFromScalar(&scalar), nil
}

// Sign signs evt with the Schnorr signer.
func Sign(evt Event, privateKeyHex string) (Event, error) {
	return SignWith(Schnorr, evt, privateKeyHex)
}

// SignWith derives the author pubkey from the private key, computes the id
// and signs it. The returned event is a new value; evt is left untouched.
func SignWith(s Signer, evt Event, privateKeyHex string) (Event, error) {
	priv, err := DecodeHex(privateKeyHex, PrivateKeySize)
	if err != nil {
		return Event{}, Wrap(CodeInvalidPrivateKey, "invalid private key", err)
	}
	pub, err := s.PublicKey(priv)
	if err != nil {
		return Event{}, err
	}

	out := evt.Clone()
	out.PubKey = EncodeHex(pub)
	out.Sig = ""
	id := out.Hash()
	out.ID = EncodeHex(id[:])

	sig, err := s.Sign(id[:], priv)
	if err != nil {
		return Event{}, err
	}
	out.Sig = EncodeHex(sig)
	return out, nil
}

// Verify checks evt with the Schnorr signer.
func Verify(evt Event) bool {
	return VerifyWith(Schnorr, evt)
}

// VerifyWith recomputes the id from the event fields before checking the
// signature, so a stale id/sig pair never verifies against edited fields.
// It fails closed on any malformed input.
func VerifyWith(s Signer, evt Event) bool {
	if !evt.CheckID() {
		return false
	}
	id, err := DecodeHex(evt.ID, IDSize)
	if err != nil {
		return false
	}
	sig, err := DecodeHex(evt.Sig, SignatureSize)
	if err != nil {
		return false
	}
	pub, err := DecodeHex(evt.PubKey, PublicKeySize)
	if err != nil {
		return false
	}
	return s.Verify(sig, id, pub)
}
