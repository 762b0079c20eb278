package protocol

import (
	"github.com/btcsuite/btcd/btcec/v2"
)

// GeneratePrivateKey returns a new random secp256k1 private key as hex.
func GeneratePrivateKey() (string, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return "", Wrap(CodeKeyGeneration, "generate private key", err)
	}
	return EncodeHex(priv.Serialize()), nil
}

// GetPublicKey derives the x-only public key for a hex private key.
func GetPublicKey(privateKeyHex string) (string, error) {
	priv, err := DecodeHex(privateKeyHex, PrivateKeySize)
	if err != nil {
		return "", Wrap(CodeInvalidPrivateKey, "invalid private key", err)
	}
	pub, err := Schnorr.PublicKey(priv)
	if err != nil {
		return "", err
	}
	return EncodeHex(pub), nil
}

// ParsePrivateKey decodes a hex private key for callers that need the
// curve key itself, such as ECDH.
func ParsePrivateKey(privateKeyHex string) (*btcec.PrivateKey, error) {
	b, err := DecodeHex(privateKeyHex, PrivateKeySize)
	if err != nil {
		return nil, Wrap(CodeInvalidPrivateKey, "invalid private key", err)
	}
	return parsePrivateKey(b)
}
