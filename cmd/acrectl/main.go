// acrectl manages Acre Intrusion credentials from a terminal on the host
// running the core. It reads the same config file and credential storage
// as the service. Run it while the core is stopped: a running core keeps
// its own copy of the table and overwrites the stored one on its next save.
//
// Usage:
//
//	acrectl [-config path] setup-admin
//	acrectl [-config path] add-user <name>
//	acrectl [-config path] set-pin <name>
//	acrectl [-config path] remove-user <name>
//	acrectl [-config path] list
//	acrectl [-config path] verify [name]
//
// Every command except setup-admin, list and verify asks for the admin PIN
// first. PINs are read without echo when stdin is a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/kimballen/acre-Intrusion/internal/audit"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/config"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/database"
	"github.com/kimballen/acre-Intrusion/internal/infrastructure/logging"
	"github.com/kimballen/acre-Intrusion/internal/pinstore"
	"github.com/kimballen/acre-Intrusion/internal/setup"
	"github.com/kimballen/acre-Intrusion/internal/storage"
	"github.com/kimballen/acre-Intrusion/migrations"
)

var version = "dev"

const defaultConfigPath = "configs/config.yaml"

// readPassword and isTerminal are test seams for golang.org/x/term.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var (
	errUsage       = errors.New("usage")
	errNoMatch     = errors.New("pin does not match")
	errPINMismatch = errors.New("pins do not match")
)

// commandArgs bounds the positional arguments each command accepts.
var commandArgs = map[string]struct{ min, max int }{
	"setup-admin": {0, 0},
	"add-user":    {1, 1},
	"set-pin":     {1, 1},
	"remove-user": {1, 1},
	"list":        {0, 0},
	"verify":      {0, 1},
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app holds one opened credential store for the duration of a command.
type app struct {
	creds *pinstore.Store
	svc   *setup.Service
	pins  *pinReader
	out   io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("acrectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", envOr("ACRE_CONFIG", defaultConfigPath), "path to config.yaml")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: acrectl [-config path] <setup-admin|add-user|set-pin|remove-user|list|verify> [name]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cmd, rest := fs.Arg(0), fs.Args()
	if len(rest) > 0 {
		rest = rest[1:]
	}
	arity, known := commandArgs[cmd]
	if !known || len(rest) < arity.min || len(rest) > arity.max {
		fs.Usage()
		return errUsage
	}

	a, closeFn, err := open(ctx, *configPath, stdin, stdout, stderr)
	if err != nil {
		return err
	}
	defer closeFn()

	var name string
	if len(rest) == 1 {
		name = rest[0]
	}

	switch cmd {
	case "setup-admin":
		return a.setupAdmin(ctx)
	case "add-user":
		return a.addUser(ctx, name)
	case "set-pin":
		return a.setPIN(ctx, name)
	case "remove-user":
		return a.removeUser(ctx, name)
	case "list":
		return a.list()
	default:
		return a.verify(name)
	}
}

// open loads config, migrates the database and loads the credential table.
func open(ctx context.Context, configPath string, stdin io.Reader, stdout, stderr io.Writer) (*app, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logCfg := cfg.Logging
	if logCfg.Level != "debug" {
		logCfg.Level = "warn"
	}
	log := logging.NewWithWriter(logCfg, version, stderr)

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	closeFn := func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	backend, err := storage.NewBackend(cfg.Storage, db)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("creating credential storage: %w", err)
	}
	creds := pinstore.New(storage.New(backend, pinstore.StorageKey, pinstore.StorageVersion), log)
	if err := creds.Load(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("loading credentials: %w", err)
	}

	recorder := audit.NewRecorder(audit.NewSQLiteRepository(db.DB), audit.SourceCLI, log)
	return &app{
		creds: creds,
		svc:   setup.NewService(creds, recorder, nil, log),
		pins:  newPINReader(stdin, stdout),
		out:   stdout,
	}, closeFn, nil
}

func (a *app) setupAdmin(ctx context.Context) error {
	if a.creds.HasAdmin() {
		return setup.ErrAdminExists
	}
	pin, err := a.pins.readNew("New admin PIN")
	if err != nil {
		return err
	}
	if err := a.svc.SetupAdmin(ctx, pin); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Admin PIN configured.")
	return nil
}

func (a *app) unlock() error {
	pin, err := a.pins.read("Admin PIN: ")
	if err != nil {
		return err
	}
	return a.svc.Unlock(pin)
}

func (a *app) addUser(ctx context.Context, name string) error {
	if err := setup.ValidateUsername(name); err != nil {
		return err
	}
	if err := a.unlock(); err != nil {
		return err
	}
	pin, err := a.pins.readNew("PIN for " + name)
	if err != nil {
		return err
	}
	if err := a.svc.AddUser(ctx, name, pin); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "User %s saved.\n", name)
	return nil
}

func (a *app) setPIN(ctx context.Context, name string) error {
	if err := a.unlock(); err != nil {
		return err
	}
	pin, err := a.pins.readNew("New PIN for " + name)
	if err != nil {
		return err
	}

	if name == pinstore.AdminIdentity {
		err = a.svc.ChangeAdminPIN(ctx, pin)
	} else {
		err = a.svc.ModifyUser(ctx, name, pin)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "PIN for %s updated.\n", name)
	return nil
}

func (a *app) removeUser(ctx context.Context, name string) error {
	if name == pinstore.AdminIdentity {
		return pinstore.ErrProtectedIdentity
	}
	if err := a.unlock(); err != nil {
		return err
	}
	if err := a.svc.RemoveUser(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "User %s removed.\n", name)
	return nil
}

func (a *app) list() error {
	status := a.svc.Status()
	fmt.Fprintf(a.out, "admin configured: %t\n", status.AdminConfigured)
	for _, name := range a.svc.Users() {
		fmt.Fprintln(a.out, name)
	}
	return nil
}

// verify checks a PIN against name, or against every identity when name
// is empty, and reports which identity matched.
func (a *app) verify(name string) error {
	pin, err := a.pins.read("PIN: ")
	if err != nil {
		return err
	}

	if name != "" {
		if !a.creds.Verify(pin, name) {
			return errNoMatch
		}
		fmt.Fprintf(a.out, "PIN matches %s.\n", name)
		return nil
	}

	identity, ok := a.creds.Match(pin)
	if !ok {
		return errNoMatch
	}
	fmt.Fprintf(a.out, "PIN matches %s.\n", identity)
	return nil
}

// pinReader reads PINs without echo from a terminal, or one per line
// otherwise so acrectl can be scripted.
type pinReader struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func newPINReader(stdin io.Reader, out io.Writer) *pinReader {
	r := &pinReader{in: bufio.NewReader(stdin), out: out, fd: -1}
	if f, ok := stdin.(*os.File); ok {
		r.fd = int(f.Fd()) //nolint:gosec // File descriptors fit in int
		r.tty = isTerminal(r.fd)
	}
	return r
}

func (r *pinReader) read(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if r.tty {
		b, err := readPassword(r.fd)
		fmt.Fprintln(r.out)
		if err != nil {
			return "", fmt.Errorf("reading pin: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := r.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("reading pin: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readNew reads a PIN twice and validates it.
func (r *pinReader) readNew(label string) (string, error) {
	pin, err := r.read(label + ": ")
	if err != nil {
		return "", err
	}
	if err := setup.ValidatePIN(pin); err != nil {
		return "", err
	}
	confirm, err := r.read("Repeat " + strings.ToLower(label[:1]) + label[1:] + ": ")
	if err != nil {
		return "", err
	}
	if confirm != pin {
		return "", errPINMismatch
	}
	return pin, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
