package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/danmuck/nostrkit/internal/protocol"
	"github.com/danmuck/nostrkit/internal/protocol/envelope"
	"github.com/danmuck/nostrkit/internal/protocol/nip04"
	"github.com/danmuck/nostrkit/internal/protocol/nip19"
	"github.com/danmuck/nostrkit/internal/protocol/schema"
)

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("nostrctl "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) writeJSON(v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return a.write(buf.Bytes())
}

func (a *app) writeLine(s string) error {
	_, err := fmt.Fprintln(a.stdout, s)
	return err
}

// writeResult prints a validation result and turns a failing one into errInvalid.
func (a *app) writeResult(res schema.Result) error {
	if err := a.writeJSON(res); err != nil {
		return err
	}
	if !res.Valid {
		return errInvalid
	}
	return nil
}

// secretKey accepts a hex private key or an nsec entity.
func secretKey(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("missing -key")
	}
	if strings.HasPrefix(strings.ToLower(s), string(nip19.PrefixSecretKey)+"1") {
		e, err := nip19.Decode(s)
		if err != nil {
			return "", err
		}
		return string(e.(nip19.SecretKey)), nil
	}
	if _, err := protocol.DecodeHex(s, protocol.PrivateKeySize); err != nil {
		return "", err
	}
	return strings.ToLower(s), nil
}

// publicKey accepts a hex public key or an npub entity.
func publicKey(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("missing public key")
	}
	if strings.HasPrefix(strings.ToLower(s), string(nip19.PrefixPublicKey)+"1") {
		e, err := nip19.Decode(s)
		if err != nil {
			return "", err
		}
		return string(e.(nip19.PublicKey)), nil
	}
	if _, err := protocol.DecodeHex(s, protocol.PublicKeySize); err != nil {
		return "", err
	}
	return strings.ToLower(s), nil
}

type keyPair struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
	Nsec       string `json:"nsec"`
	Npub       string `json:"npub"`
}

func describeKey(priv string) (keyPair, error) {
	pub, err := protocol.GetPublicKey(priv)
	if err != nil {
		return keyPair{}, err
	}
	nsec, err := nip19.EncodeSecretKey(priv)
	if err != nil {
		return keyPair{}, err
	}
	npub, err := nip19.EncodePublicKey(pub)
	if err != nil {
		return keyPair{}, err
	}
	return keyPair{PrivateKey: priv, PublicKey: pub, Nsec: nsec, Npub: npub}, nil
}

func runKeygen(a *app, args []string) error {
	if err := a.flags("keygen").Parse(args); err != nil {
		return err
	}
	priv, err := protocol.GeneratePrivateKey()
	if err != nil {
		return err
	}
	kp, err := describeKey(priv)
	if err != nil {
		return err
	}
	a.log.Info().Str("pubkey", kp.PublicKey).Msg("nostrctl: generated key")
	return a.writeJSON(kp)
}

func runPubkey(a *app, args []string) error {
	fs := a.flags("pubkey")
	key := fs.String("key", "", "private key (hex or nsec)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	priv, err := secretKey(*key)
	if err != nil {
		return err
	}
	kp, err := describeKey(priv)
	if err != nil {
		return err
	}
	return a.writeJSON(struct {
		PublicKey string `json:"public_key"`
		Npub      string `json:"npub"`
	}{kp.PublicKey, kp.Npub})
}

func runSign(a *app, args []string) error {
	fs := a.flags("sign")
	key := fs.String("key", "", "private key (hex or nsec)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	priv, err := secretKey(*key)
	if err != nil {
		return err
	}
	raw, err := a.readInput()
	if err != nil {
		return err
	}
	if res := a.validator.EventJSON(raw); !res.Valid {
		return a.writeResult(res)
	}
	var evt protocol.Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return protocol.Wrap(protocol.CodeInvalidEvent, "decode event", err)
	}
	if evt.CreatedAt == 0 {
		evt.CreatedAt = protocol.Now()
	}
	signed, err := protocol.Sign(evt, priv)
	if err != nil {
		return err
	}
	a.log.Debug().Str("id", signed.ID).Int("kind", int(signed.Kind)).Msg("nostrctl: signed event")
	return a.writeJSON(signed)
}

func runVerify(a *app, args []string) error {
	if err := a.flags("verify").Parse(args); err != nil {
		return err
	}
	raw, err := a.readInput()
	if err != nil {
		return err
	}
	return a.writeResult(a.validator.SignedEventJSON(raw))
}

func runValidate(a *app, args []string) error {
	fs := a.flags("validate")
	kind := fs.String("type", "event", "event, signed, filter or subscription")
	if err := fs.Parse(args); err != nil {
		return err
	}
	raw, err := a.readInput()
	if err != nil {
		return err
	}
	switch *kind {
	case "event":
		return a.writeResult(a.validator.EventJSON(raw))
	case "signed":
		return a.writeResult(a.validator.SignedEventJSON(raw))
	case "filter":
		return a.writeResult(a.validator.FilterJSON(raw))
	case "subscription":
		return a.writeResult(a.validator.SubscriptionJSON(raw))
	default:
		return fmt.Errorf("unknown -type %q", *kind)
	}
}

func runEncode(a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing entity type")
	}
	prefix := nip19.Prefix(args[0])
	fs := a.flags("encode " + args[0])
	value := fs.String("hex", "", "32-byte hex value (npub, nsec, note, nprofile pubkey, nevent id, naddr pubkey)")
	url := fs.String("url", "", "relay url (nrelay)")
	author := fs.String("author", "", "author public key (nevent)")
	kind := fs.Int("kind", -1, "event kind (nevent, naddr)")
	identifier := fs.String("identifier", "", "d-tag identifier (naddr)")
	var relays stringList
	fs.Var(&relays, "relay", "relay hint, repeatable")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	var entity nip19.Entity
	switch prefix {
	case nip19.PrefixPublicKey:
		pub, err := publicKey(*value)
		if err != nil {
			return err
		}
		entity = nip19.PublicKey(pub)
	case nip19.PrefixSecretKey:
		entity = nip19.SecretKey(*value)
	case nip19.PrefixNote:
		entity = nip19.Note(*value)
	case nip19.PrefixRelay:
		entity = nip19.Relay(*url)
	case nip19.PrefixProfile:
		entity = nip19.ProfilePointer{PublicKey: *value, Relays: relays}
	case nip19.PrefixEvent:
		p := nip19.EventPointer{ID: *value, Relays: relays, Author: *author}
		if *kind >= 0 {
			k := protocol.Kind(*kind)
			p.Kind = &k
		}
		entity = p
	case nip19.PrefixAddress:
		if *kind < 0 {
			return fmt.Errorf("naddr requires -kind")
		}
		entity = nip19.AddressPointer{
			PublicKey:  *value,
			Kind:       protocol.Kind(*kind),
			Identifier: *identifier,
			Relays:     relays,
		}
	default:
		return protocol.Errorf(protocol.CodeUnknownPrefix, "unknown prefix %q", args[0])
	}

	s, err := nip19.Encode(entity)
	if err != nil {
		return err
	}
	return a.writeLine(s)
}

func runDecode(a *app, args []string) error {
	fs := a.flags("decode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("decode takes exactly one entity")
	}
	e, err := nip19.Decode(strings.TrimSpace(fs.Arg(0)))
	if err != nil {
		return err
	}
	return a.writeJSON(struct {
		Type nip19.Prefix `json:"type"`
		Data nip19.Entity `json:"data"`
	}{e.Prefix(), e})
}

func runReq(a *app, args []string) error {
	fs := a.flags("req")
	id := fs.String("id", "", "subscription id (generated when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	raw, err := a.readInput()
	if err != nil {
		return err
	}

	var filters []protocol.Filter
	switch {
	case len(raw) == 0:
		return fmt.Errorf("no filters on stdin")
	case raw[0] == '[':
		err = json.Unmarshal(raw, &filters)
	default:
		var f protocol.Filter
		err = json.Unmarshal(raw, &f)
		filters = []protocol.Filter{f}
	}
	if err != nil {
		return protocol.Wrap(protocol.CodeInvalidFilter, "decode filters", err)
	}

	sub := protocol.Subscription{ID: *id, Filters: filters}
	if sub.ID == "" {
		sub.ID = a.cfg.idGenerator().New()
	}
	if res := a.validator.Subscription(sub); !res.Valid {
		return a.writeResult(res)
	}
	b, err := envelope.Marshal(envelope.ReqMessage{SubscriptionID: sub.ID, Filters: sub.Filters})
	if err != nil {
		return err
	}
	return a.write(b)
}

func runParse(a *app, args []string) error {
	if err := a.flags("parse").Parse(args); err != nil {
		return err
	}
	raw, err := a.readInput()
	if err != nil {
		return err
	}
	msg, err := a.parser.Parse(raw)
	if err != nil {
		return err
	}
	return a.writeJSON(struct {
		Type    envelope.Label   `json:"type"`
		Message envelope.Message `json:"message"`
	}{msg.Label(), msg})
}

func runEncrypt(a *app, args []string) error {
	return a.cipher("encrypt", args, a.readRaw, nip04.Encrypt)
}

func runDecrypt(a *app, args []string) error {
	return a.cipher("decrypt", args, a.readInput, nip04.Decrypt)
}

// cipher runs an encrypt or decrypt command. Plaintext is read verbatim;
// ciphertext is trimmed.
func (a *app) cipher(name string, args []string, read func() ([]byte, error), fn func(text, priv, peer string) (string, error)) error {
	fs := a.flags(name)
	key := fs.String("key", "", "own private key (hex or nsec)")
	peer := fs.String("peer", "", "peer public key (hex or npub)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	priv, err := secretKey(*key)
	if err != nil {
		return err
	}
	pub, err := publicKey(*peer)
	if err != nil {
		return err
	}
	raw, err := read()
	if err != nil {
		return err
	}
	out, err := fn(string(raw), priv, pub)
	if err != nil {
		return err
	}
	return a.writeLine(out)
}
