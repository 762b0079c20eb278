package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/pretty"

	"github.com/danmuck/nostrkit/internal/logging"
	"github.com/danmuck/nostrkit/internal/protocol/envelope"
	"github.com/danmuck/nostrkit/internal/protocol/schema"
)

// errInvalid marks a command that ran but found its input invalid; the
// report has already been written to stdout.
var errInvalid = errors.New("input is invalid")

type app struct {
	cfg       Config
	log       zerolog.Logger
	validator schema.Validator
	parser    envelope.Parser
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
}

type command struct {
	summary string
	run     func(a *app, args []string) error
}

var commands = map[string]command{
	"keygen":   {"generate a private key", runKeygen},
	"pubkey":   {"derive the public key of -key", runPubkey},
	"sign":     {"sign the event on stdin with -key", runSign},
	"verify":   {"verify the signed event on stdin", runVerify},
	"validate": {"validate stdin as -type event|signed|filter|subscription", runValidate},
	"encode":   {"encode an entity: encode <npub|nsec|note|nrelay|nprofile|nevent|naddr> [flags]", runEncode},
	"decode":   {"decode a bech32 entity argument", runDecode},
	"req":      {"build a REQ message from the filters on stdin", runReq},
	"parse":    {"parse the relay message on stdin", runParse},
	"encrypt":  {"encrypt stdin for -peer with -key (NIP-04)", runEncrypt},
	"decrypt":  {"decrypt stdin from -peer with -key (NIP-04)", runDecrypt},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nostrctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a TOML config file")
	prettyOut := fs.Bool("pretty", false, "indent JSON output")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(stderr)
		return 2
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "nostrctl: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *prettyOut {
		cfg.Pretty = true
	}

	logger := logging.New(logging.ProfileRuntime, logWriter(stderr))
	if cfg.LogLevel != nil {
		logger = logger.Level(*cfg.LogLevel)
	}
	logger = logger.With().Str("app", "nostrctl").Logger()

	a := &app{
		cfg:       cfg,
		log:       logger,
		validator: schema.New(schema.WithLimits(cfg.Limits), schema.WithLogger(logger)),
		parser:    envelope.Parser{Strict: cfg.StrictRelayMessages, Log: &logger},
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "nostrctl: unknown command %q\n", name)
		usage(stderr)
		return 2
	}
	logger.Debug().Str("command", name).Msg("nostrctl: run")
	if err := cmd.run(a, fs.Args()[1:]); err != nil {
		if errors.Is(err, errInvalid) {
			return 1
		}
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(stderr, "nostrctl %s: %v\n", name, err)
		return 1
	}
	return 0
}

// logWriter lets logging pick colour for the real stderr; other writers
// (tests) are used as given.
func logWriter(w io.Writer) io.Writer {
	if f, ok := w.(*os.File); ok && f == os.Stderr {
		return nil
	}
	return w
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: nostrctl [-config file] [-pretty] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].summary)
	}
}

func (a *app) write(b []byte) error {
	if a.cfg.Pretty {
		b = pretty.Pretty(b)
	} else if len(b) == 0 || b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}
	_, err := a.stdout.Write(b)
	return err
}

// readInput returns stdin with surrounding whitespace removed.
func (a *app) readInput() ([]byte, error) {
	b, err := a.readRaw()
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(string(b))), nil
}

func (a *app) readRaw() ([]byte, error) {
	b, err := io.ReadAll(a.stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return b, nil
}
