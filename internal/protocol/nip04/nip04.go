// Package nip04 implements the legacy encrypted direct message scheme:
// AES-256-CBC keyed with the x coordinate of the secp256k1 ECDH point,
// rendered as "<base64 ciphertext>?iv=<base64 iv>".
package nip04

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/danmuck/nostrkit/internal/protocol"
)

const ivSeparator = "?iv="

// SharedSecret returns the 32-byte ECDH secret between a private key and a
// peer's x-only public key. Both sides derive the same value.
func SharedSecret(privateKeyHex, peerPubKeyHex string) ([]byte, error) {
	priv, err := protocol.ParsePrivateKey(privateKeyHex)
	if err != nil {
		return nil, err
	}
	raw, err := protocol.DecodeHex(peerPubKeyHex, protocol.PublicKeySize)
	if err != nil {
		return nil, protocol.Wrap(protocol.CodeInvalidPublicKey, "invalid public key", err)
	}
	pub, err := btcec.ParsePubKey(append([]byte{0x02}, raw...))
	if err != nil {
		return nil, protocol.Wrap(protocol.CodeInvalidPublicKey, "invalid public key", err)
	}
	return btcec.GenerateSharedSecret(priv, pub), nil
}

// Encrypt encrypts plaintext for peerPubKeyHex with a random IV.
func Encrypt(plaintext, privateKeyHex, peerPubKeyHex string) (string, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", protocol.Wrap(protocol.CodeEncryptionFailed, "encryption failed: read iv", err)
	}
	return encryptWithIV(plaintext, privateKeyHex, peerPubKeyHex, iv)
}

func encryptWithIV(plaintext, privateKeyHex, peerPubKeyHex string, iv []byte) (string, error) {
	key, err := SharedSecret(privateKeyHex, peerPubKeyHex)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", protocol.Wrap(protocol.CodeEncryptionFailed, "encryption failed", err)
	}
	padded := pad([]byte(plaintext))
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(out) + ivSeparator + base64.StdEncoding.EncodeToString(iv), nil
}

// Decrypt reverses Encrypt. The caller's private key and the sender's
// public key yield the same secret the sender used.
func Decrypt(content, privateKeyHex, peerPubKeyHex string) (string, error) {
	ctB64, ivB64, ok := strings.Cut(content, ivSeparator)
	if !ok {
		return "", protocol.NewError(protocol.CodeDecryptionFailed, "decryption failed: missing ?iv= separator")
	}
	ct, err := base64.StdEncoding.DecodeString(ctB64)
	if err != nil {
		return "", protocol.Wrap(protocol.CodeInvalidBase64, "invalid base64 ciphertext", err)
	}
	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil {
		return "", protocol.Wrap(protocol.CodeInvalidBase64, "invalid base64 iv", err)
	}
	if len(iv) != aes.BlockSize {
		return "", protocol.Errorf(protocol.CodeDecryptionFailed, "decryption failed: iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", protocol.Errorf(protocol.CodeDecryptionFailed, "decryption failed: ciphertext length %d is not a positive multiple of %d", len(ct), aes.BlockSize)
	}

	key, err := SharedSecret(privateKeyHex, peerPubKeyHex)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", protocol.Wrap(protocol.CodeDecryptionFailed, "decryption failed", err)
	}
	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ct)
	plain, err := unpad(out)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, protocol.NewError(protocol.CodeDecryptionFailed, "decryption failed: bad padding")
	}
	for _, c := range b[len(b)-n:] {
		if int(c) != n {
			return nil, protocol.NewError(protocol.CodeDecryptionFailed, "decryption failed: bad padding")
		}
	}
	return b[:len(b)-n], nil
}
