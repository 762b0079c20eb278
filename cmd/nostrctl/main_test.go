package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const (
	testPrivateKey = "0000000000000000000000000000000000000000000000000000000000000001"
	testPubKey     = "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
	testNpub       = "npub10xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqpkge6d"
	peerPrivateKey = "0000000000000000000000000000000000000000000000000000000000000002"
	peerPubKey     = "c6047f9441ed7d6d3045406e95c07cd85c778e4b8cef3ca7abac09b95c709ee5"
	pinnedID       = "33c758466a465ce9df004b6d6e3abb039d593277784c276c49725a622794eca0"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func mustSucceed(t *testing.T, r result) string {
	t.Helper()
	if r.code != 0 {
		t.Fatalf("exit %d\nstdout: %s\nstderr: %s", r.code, r.stdout, r.stderr)
	}
	return strings.TrimSpace(r.stdout)
}

func TestKeygen(t *testing.T) {
	out := mustSucceed(t, runCLI(t, "", "keygen"))
	var kp keyPair
	if err := json.Unmarshal([]byte(out), &kp); err != nil {
		t.Fatalf("decode keygen output: %v", err)
	}
	if len(kp.PrivateKey) != 64 || len(kp.PublicKey) != 64 {
		t.Fatalf("unexpected key lengths: %+v", kp)
	}
	if !strings.HasPrefix(kp.Nsec, "nsec1") || !strings.HasPrefix(kp.Npub, "npub1") {
		t.Fatalf("unexpected entities: %+v", kp)
	}
}

func TestPubkeyAcceptsHexAndNsec(t *testing.T) {
	want := `{"public_key":"` + testPubKey + `","npub":"` + testNpub + `"}`
	if got := mustSucceed(t, runCLI(t, "", "pubkey", "-key", testPrivateKey)); got != want {
		t.Fatalf("pubkey:\n got %s\nwant %s", got, want)
	}

	nsec := mustSucceed(t, runCLI(t, "", "encode", "nsec", "-hex", testPrivateKey))
	if got := mustSucceed(t, runCLI(t, "", "pubkey", "-key", nsec)); got != want {
		t.Fatalf("pubkey from nsec:\n got %s\nwant %s", got, want)
	}

	r := runCLI(t, "", "pubkey", "-key", "00")
	if r.code != 1 || !strings.Contains(r.stderr, "invalid length") {
		t.Fatalf("expected invalid key failure, got %+v", r)
	}
}

func TestSignThenVerify(t *testing.T) {
	unsigned := `{"kind":1,"content":"hi","tags":[],"created_at":1700000000}`
	signed := mustSucceed(t, runCLI(t, unsigned, "sign", "-key", testPrivateKey))
	if !strings.Contains(signed, `"id":"`+pinnedID+`"`) {
		t.Fatalf("unexpected signed event: %s", signed)
	}

	if got := mustSucceed(t, runCLI(t, signed, "verify")); got != `{"valid":true,"errors":[]}` {
		t.Fatalf("unexpected verify output: %s", got)
	}

	tampered := strings.Replace(signed, `"content":"hi"`, `"content":"hI"`, 1)
	r := runCLI(t, tampered, "verify")
	if r.code != 1 {
		t.Fatalf("expected exit 1 for tampered event, got %d", r.code)
	}
	if !strings.Contains(r.stdout, "id does not match the event hash") {
		t.Fatalf("unexpected verify report: %s", r.stdout)
	}
}

func TestSignRejectsInvalidEvent(t *testing.T) {
	r := runCLI(t, `{"kind":-1,"content":"hi","tags":[],"created_at":1}`, "sign", "-key", testPrivateKey)
	if r.code != 1 || !strings.Contains(r.stdout, "kind must be a non-negative integer") {
		t.Fatalf("expected validation report, got %+v", r)
	}
}

func TestValidateFilterOrdering(t *testing.T) {
	r := runCLI(t, `{"since":100,"until":50}`, "validate", "-type", "filter")
	if r.code != 1 {
		t.Fatalf("expected exit 1, got %d", r.code)
	}
	want := `{"valid":false,"errors":["since must be less than or equal to until"]}`
	if got := strings.TrimSpace(r.stdout); got != want {
		t.Fatalf("validate:\n got %s\nwant %s", got, want)
	}
	mustSucceed(t, runCLI(t, `{"since":50,"until":100}`, "validate", "-type", "filter"))
	mustSucceed(t, runCLI(t, `{"id":"s1","filters":[{"kinds":[1]}]}`, "validate", "-type", "subscription"))

	r = runCLI(t, `{}`, "validate", "-type", "bogus")
	if r.code != 1 || !strings.Contains(r.stderr, "unknown -type") {
		t.Fatalf("expected unknown type failure, got %+v", r)
	}
}

func TestEncodeDecode(t *testing.T) {
	if got := mustSucceed(t, runCLI(t, "", "encode", "npub", "-hex", testPubKey)); got != testNpub {
		t.Fatalf("unexpected npub %s", got)
	}
	want := `{"type":"npub","data":"` + testPubKey + `"}`
	if got := mustSucceed(t, runCLI(t, "", "decode", testNpub)); got != want {
		t.Fatalf("decode:\n got %s\nwant %s", got, want)
	}

	nprofile := mustSucceed(t, runCLI(t, "", "encode", "nprofile",
		"-hex", "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d",
		"-relay", "wss://r.x.com", "-relay", "wss://djbas.sadkb.com"))
	if nprofile != "nprofile1qqsrhuxx8l9ex335q7he0f09aej04zpazpl0ne2cgukyawd24mayt8gpp4mhxue69uhhytnc9e3k7mgpz4mhxue69uhkg6nzv9ejuumpv34kytnrdaksjlyr9p" {
		t.Fatalf("unexpected nprofile %s", nprofile)
	}
	decoded := mustSucceed(t, runCLI(t, "", "decode", nprofile))
	if !strings.Contains(decoded, `"relays":["wss://r.x.com","wss://djbas.sadkb.com"]`) {
		t.Fatalf("relays not preserved: %s", decoded)
	}

	naddr := mustSucceed(t, runCLI(t, "", "encode", "naddr", "-hex", testPubKey, "-kind", "30023", "-identifier", "my-article", "-relay", "wss://r.x.com"))
	decoded = mustSucceed(t, runCLI(t, "", "decode", naddr))
	if !strings.Contains(decoded, `"kind":30023`) || !strings.Contains(decoded, `"identifier":"my-article"`) {
		t.Fatalf("unexpected naddr decode: %s", decoded)
	}

	r := runCLI(t, "", "decode", "invalid")
	if r.code != 1 || !strings.Contains(r.stderr, "invalid bech32 string") {
		t.Fatalf("expected bech32 failure, got %+v", r)
	}
	r = runCLI(t, "", "encode", "nfoo", "-hex", testPubKey)
	if r.code != 1 || !strings.Contains(r.stderr, "unknown prefix") {
		t.Fatalf("expected unknown prefix failure, got %+v", r)
	}
}

func TestReq(t *testing.T) {
	got := mustSucceed(t, runCLI(t, `{"kinds":[1]}`, "req", "-id", "s1"))
	if got != `["REQ","s1",{"kinds":[1]}]` {
		t.Fatalf("unexpected req: %s", got)
	}

	got = mustSucceed(t, runCLI(t, `[{"kinds":[1]},{"#e":["`+pinnedID+`"]}]`, "-config", "ex.config.toml", "req"))
	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(got), &arr); err != nil {
		t.Fatalf("decode req: %v", err)
	}
	if len(arr) != 4 {
		t.Fatalf("expected label, id and two filters, got %d elements", len(arr))
	}
	var id string
	if err := json.Unmarshal(arr[1], &id); err != nil || id == "" {
		t.Fatalf("expected generated subscription id, got %s", arr[1])
	}

	r := runCLI(t, `[]`, "req", "-id", "s1")
	if r.code != 1 || !strings.Contains(r.stdout, "subscription must contain at least one filter") {
		t.Fatalf("expected empty subscription report, got %+v", r)
	}
}

func TestParse(t *testing.T) {
	r := runCLI(t, `["REQ","s1"]`, "parse")
	if r.code != 1 || !strings.Contains(r.stderr, "REQ message missing subscription ID or filters") {
		t.Fatalf("expected REQ arity failure, got %+v", r)
	}

	got := mustSucceed(t, runCLI(t, `["OK","abc","true","saved"]`, "parse"))
	var decoded map[string]any
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("decode parse output: %v", err)
	}
	want := map[string]any{
		"type":    "OK",
		"message": map[string]any{"event_id": "abc", "accepted": true, "reason": "saved"},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Fatalf("parse output mismatch (-want +got):\n%s", diff)
	}

	mustSucceed(t, runCLI(t, `EOSE,s1`, "parse"))
	r = runCLI(t, `EOSE,s1`, "-config", "ex.config.toml", "parse")
	if r.code != 1 || !strings.Contains(r.stderr, "invalid relay message") {
		t.Fatalf("strict config should reject comma fallback, got %+v", r)
	}
}

func TestEncryptDecrypt(t *testing.T) {
	ct := mustSucceed(t, runCLI(t, "meet at noon", "encrypt", "-key", testPrivateKey, "-peer", peerPubKey))
	if !strings.Contains(ct, "?iv=") {
		t.Fatalf("unexpected ciphertext %s", ct)
	}
	plain := mustSucceed(t, runCLI(t, ct, "decrypt", "-key", peerPrivateKey, "-peer", testNpub))
	if plain != "meet at noon" {
		t.Fatalf("unexpected plaintext %q", plain)
	}
}

func TestEncryptKeepsSurroundingWhitespace(t *testing.T) {
	plaintext := "  indented\n"
	ct := mustSucceed(t, runCLI(t, plaintext, "encrypt", "-key", testPrivateKey, "-peer", peerPubKey))
	r := runCLI(t, "\n"+ct+"\n", "decrypt", "-key", peerPrivateKey, "-peer", testPubKey)
	if r.code != 0 {
		t.Fatalf("decrypt exit %d: %s", r.code, r.stderr)
	}
	if r.stdout != plaintext+"\n" {
		t.Fatalf("plaintext changed: %q", r.stdout)
	}
}

func TestLogLevelFromEnvironment(t *testing.T) {
	t.Setenv("NOSTRKIT_LOG_LEVEL", "debug")
	r := runCLI(t, "", "keygen")
	if r.code != 0 || !strings.Contains(r.stderr, "nostrctl: run") {
		t.Fatalf("expected debug output with NOSTRKIT_LOG_LEVEL=debug, got %+v", r)
	}

	t.Setenv("NOSTRKIT_LOG_LEVEL", "error")
	r = runCLI(t, "", "keygen")
	if r.code != 0 || strings.Contains(r.stderr, "generated key") {
		t.Fatalf("expected info output suppressed, got %+v", r)
	}

	cfg := writeConfig(t, `log_level = "debug"`)
	r = runCLI(t, "", "-config", cfg, "keygen")
	if r.code != 0 || !strings.Contains(r.stderr, "nostrctl: run") {
		t.Fatalf("expected config log_level to apply, got %+v", r)
	}
}

func TestPrettyOutput(t *testing.T) {
	out := mustSucceed(t, runCLI(t, "", "-pretty", "pubkey", "-key", testPrivateKey))
	if !strings.Contains(out, "\n  \"public_key\"") {
		t.Fatalf("expected indented output, got %s", out)
	}
}

func TestUsageErrors(t *testing.T) {
	if r := runCLI(t, ""); r.code != 2 || !strings.Contains(r.stderr, "usage: nostrctl") {
		t.Fatalf("expected usage, got %+v", r)
	}
	if r := runCLI(t, "", "frobnicate"); r.code != 2 || !strings.Contains(r.stderr, "unknown command") {
		t.Fatalf("expected unknown command, got %+v", r)
	}
	if r := runCLI(t, "", "-config", "missing.toml", "keygen"); r.code != 1 {
		t.Fatalf("expected config failure, got %+v", r)
	}
}
