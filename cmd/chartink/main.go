package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/chartink/internal/config"
	"github.com/example/chartink/internal/notify"
	"github.com/example/chartink/internal/theme"
	"github.com/example/chartink/pkg/logger"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type runnable interface{ Run() error }

type root struct {
	fs      *flag.FlagSet
	program string
	stdout  io.Writer
	stderr  io.Writer

	configPath string
	themeName  string
	logLevel   string
	logPretty  bool
	notifySave bool
	notifyCopy bool
	notifyData bool

	config      *config.Config
	activeTheme *theme.Theme
	notifier    *notify.Notifier
	log         zerolog.Logger
}

func (r *root) Program() string        { return r.program }
func (r *root) FlagSet() *flag.FlagSet { return r.fs }
func (r *root) Template() string       { return "root.txt" }

func newRoot(stdout, stderr io.Writer) *root {
	r := &root{
		fs:      flag.NewFlagSet("chartink", flag.ContinueOnError),
		program: "chartink",
		stdout:  stdout,
		stderr:  stderr,
		log:     zerolog.Nop(),
	}
	r.fs.SetOutput(stderr)
	r.fs.StringVar(&r.configPath, "config", "", "path to an rc config file")
	r.fs.StringVar(&r.themeName, "theme", "", "colour theme: dark, light, a [theme.<name>] from the config, or a .theme file")
	r.fs.StringVar(&r.logLevel, "log-level", "", "log level: debug, info, warn, error")
	r.fs.BoolVar(&r.logPretty, "log-pretty", true, "human readable log output")
	r.fs.BoolVar(&r.notifySave, "notify-save", false, "show a desktop notification after saving a chart")
	r.fs.BoolVar(&r.notifyCopy, "notify-copy", false, "show a desktop notification after copying a chart")
	r.fs.BoolVar(&r.notifyData, "notify-fallback", false, "show a desktop notification when live market data is unavailable")
	r.fs.Usage = usageFunc(r)
	return r
}

// subcommand derives the program name for a nested command.
func (r *root) subcommand(name string) string {
	return strings.TrimSpace(r.program + " " + name)
}

func (r *root) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(r.subcommand(name), flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	return fs
}

// setup loads configuration with precedence flag > env > file > default and
// builds the logger, theme and notifier.
func (r *root) setup() error {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(r.stderr, "warning: failed to load .env: %v\n", err)
	}
	cfg, err := config.NewLoader(version, r.configPath).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	r.config = cfg

	set := map[string]bool{}
	r.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if r.themeName != "" {
		cfg.Theme = r.themeName
	}
	if r.logLevel != "" {
		cfg.LogLevel = r.logLevel
	}
	if set["notify-save"] {
		cfg.Notify.Save = r.notifySave
	}
	if set["notify-copy"] {
		cfg.Notify.Copy = r.notifyCopy
	}
	if set["notify-fallback"] {
		cfg.Notify.Fallback = r.notifyData
	}

	r.log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: r.logPretty, Out: r.stderr})
	logger.SetGlobalLogger(r.log)

	r.activeTheme = r.resolveTheme(cfg.Theme)
	r.notifier = notify.New(notify.DefaultPreferences(), cfg.Notify, notify.WithLogger(r.log))
	return nil
}

func (r *root) resolveTheme(name string) *theme.Theme {
	if t, ok := r.config.ThemeByName(name); ok {
		return t
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		r.log.Warn().Err(err).Str("theme", name).Msg("using default theme")
		return theme.Default()
	}
	return t
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	if cmdName == "version" {
		return (&versionCmd{r: r}).Run()
	}
	if err := r.setup(); err != nil {
		return err
	}

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "view":
		cmd, err = parseViewCmd(subArgs, r)
	case "render":
		cmd, err = parseRenderCmd(subArgs, r, formatPNG)
	case "export":
		cmd, err = parseRenderCmd(subArgs, r, formatPDF)
	case "drawings":
		cmd, err = parseDrawingsCmd(subArgs, r)
	case "serve":
		cmd, err = parseServeCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot(os.Stdout, os.Stderr)
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		switch {
		case errors.As(err, &uerr):
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		case errors.Is(err, flag.ErrHelp):
			os.Exit(0)
		default:
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
