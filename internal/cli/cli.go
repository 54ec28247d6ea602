// Package cli implements the wordbook command line.
//
//	wordbook [global flags] <command> [command flags] [args]
//
// Global flags are the configuration flags from package config. Exit codes:
// 0 on success, 1 when the operation failed or answered "no", 2 on usage errors.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/pflag"

	"github.com/example/wordbook/internal/bot"
	"github.com/example/wordbook/internal/config"
	"github.com/example/wordbook/internal/database"
	"github.com/example/wordbook/internal/logger"
	"github.com/example/wordbook/internal/scheduler"
	"github.com/example/wordbook/internal/spaced_repetition"
	"github.com/example/wordbook/internal/vocabulary"
)

// Exit codes
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

var (
	// errUsage marks bad arguments; the message is printed with the command usage
	errUsage = errors.New("usage error")
	// errNo ends a command with ExitFailure without printing anything
	errNo = errors.New("no")
)

func usageErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

// App holds everything a command needs
type App struct {
	Config  *config.Config
	Service *vocabulary.Service
	Logger  *slog.Logger
	In      io.Reader
	Out     io.Writer
	Err     io.Writer

	// Notifiers returns the reminder targets; DefaultNotifiers when nil
	Notifiers func() ([]scheduler.Notifier, error)
}

// Run loads the configuration from args, wires the store and service and
// executes the requested command. It returns the process exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := config.Flags("wordbook")
	fs.SetInterspersed(false)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr, fs) }

	cfg, err := config.Load(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		return ExitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, "wordbook:", err)
		return ExitUsage
	}

	log := logger.Setup(cfg.Log.Level, cfg.Log.Format, stderr)

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(stderr, fs)
		return ExitUsage
	}

	store := database.NewStore(database.Options{
		Driver:       cfg.Store.Driver,
		Path:         cfg.Store.Path,
		DSN:          cfg.Store.DSN,
		QueryTimeout: cfg.Store.QueryTimeout,
		Logger:       log,
	})
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close store", "error", err)
		}
	}()

	svc := vocabulary.New(store, spaced_repetition.NewLadder(cfg.Review.HardAdvances), vocabulary.Options{
		UpsertResetsCreatedAt: cfg.Vocabulary.UpsertResetsCreatedAt,
		SearchCaseSensitive:   cfg.Vocabulary.SearchCaseSensitive,
		Logger:                log,
	})

	app := &App{
		Config:  cfg,
		Service: svc,
		Logger:  log,
		In:      stdin,
		Out:     stdout,
		Err:     stderr,
	}
	return app.Execute(ctx, rest)
}

// Execute runs one command. args[0] is the command name.
func (a *App) Execute(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(a.Err, "wordbook: missing command")
		return ExitUsage
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(a.Err, "wordbook: unknown command %q\n", args[0])
		return ExitUsage
	}

	err := cmd.run(ctx, a, args[1:])
	switch {
	case err == nil, errors.Is(err, pflag.ErrHelp):
		return ExitOK
	case errors.Is(err, errNo):
		return ExitFailure
	case errors.Is(err, errUsage):
		fmt.Fprintf(a.Err, "wordbook %s: %v\nusage: wordbook %s %s\n", args[0], err, args[0], cmd.usage)
		return ExitUsage
	default:
		fmt.Fprintf(a.Err, "wordbook %s: %v\n", args[0], err)
		return ExitFailure
	}
}

// DefaultNotifiers logs every reminder and adds Telegram when configured
func (a *App) DefaultNotifiers() ([]scheduler.Notifier, error) {
	notifiers := []scheduler.Notifier{scheduler.LogNotifier{Logger: a.Logger}}
	if a.Config.Telegram.Enabled() {
		tg, err := bot.New(a.Config.Telegram.Token, a.Config.Telegram.ChatID, a.Logger)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, tg)
	}
	return notifiers, nil
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "usage: wordbook [flags] <command> [args]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-15s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w, "\nflags:")
	fmt.Fprint(w, fs.FlagUsages())
}
