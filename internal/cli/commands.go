package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/example/wordbook/internal/excel"
	"github.com/example/wordbook/internal/scheduler"
	"github.com/example/wordbook/internal/study"
	"github.com/example/wordbook/pkg/models"
)

const timeLayout = "2006-01-02 15:04"

type command struct {
	usage   string
	summary string
	run     func(ctx context.Context, a *App, args []string) error
}

var commands = map[string]command{
	"add":            {"[flags] <word>", "add a word, keeping an existing one untouched", runAdd},
	"upsert":         {"[flags] <word>", "add a word or replace its fields", runUpsert},
	"remove":         {"<word>...", "delete words and their progress", runRemove},
	"exists":         {"<word>", "exit 0 when the word is saved", runExists},
	"count":          {"", "print the number of saved words", runCount},
	"clear":          {"--yes", "delete every word and all progress", runClear},
	"list":           {"", "list saved words, newest first", runList},
	"search":         {"<text>", "list words whose word or translation contains text", runSearch},
	"queue":          {"[--limit n] [--all]", "show the review queue", runQueue},
	"progress":       {"<word>", "show the review progress of a word", runProgress},
	"review":         {"<word> <remember|hard|forget>", "record a review outcome", runReview},
	"clear-progress": {"[--yes] [word...]", "reset progress of words, or of every word with --yes", runClearProgress},
	"stats":          {"", "print total, due and mastered counts", runStats},
	"path":           {"", "print where the vocabulary is stored", runPath},
	"health":         {"", "initialize the store and print its state", runHealth},
	"study":          {"[--limit n]", "review due words interactively", runStudy},
	"import":         {"[flags] <file.xlsx|file.csv>", "import words from a spreadsheet", runImport},
	"export":         {"<file.xlsx|file.csv>", "export words and progress to a spreadsheet", runExport},
	"remind":         {"[--daemon]", "send a reminder when words are due", runRemind},
}

func newFlags(name string, a *App) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.Err)
	return fs
}

// parse parses command flags and checks the number of positional arguments
func parse(fs *pflag.FlagSet, args []string, minArgs, maxArgs int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil, err
		}
		return nil, usageErr("%v", err)
	}
	rest := fs.Args()
	if len(rest) < minArgs {
		return nil, usageErr("not enough arguments")
	}
	if maxArgs >= 0 && len(rest) > maxArgs {
		return nil, usageErr("too many arguments")
	}
	return rest, nil
}

// entryFlags registers the optional entry fields shared by add and upsert
func entryFlags(fs *pflag.FlagSet) *models.VocabularyEntry {
	e := &models.VocabularyEntry{}
	fs.StringVarP(&e.Translation, "translation", "t", "", "translation")
	fs.StringVarP(&e.Phonetic, "phonetic", "p", "", "phonetic transcription")
	fs.StringVar(&e.FromLanguage, "from", "", "source language")
	fs.StringVar(&e.ToLanguage, "to", "", "target language")
	fs.StringVarP(&e.Note, "note", "n", "", "free-form note")
	return e
}

func runAdd(ctx context.Context, a *App, args []string) error {
	fs := newFlags("add", a)
	entry := entryFlags(fs)
	rest, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	entry.Word = rest[0]
	if err := a.Service.Validate(*entry); err != nil {
		return usageErr("%v", err)
	}

	if !a.Service.Add(ctx, *entry) {
		if a.Service.Exists(ctx, entry.Word) {
			return fmt.Errorf("%q is already saved", entry.Word)
		}
		return fmt.Errorf("could not save %q", entry.Word)
	}
	fmt.Fprintf(a.Out, "added %s\n", entry.Word)
	return nil
}

func runUpsert(ctx context.Context, a *App, args []string) error {
	fs := newFlags("upsert", a)
	entry := entryFlags(fs)
	rest, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	entry.Word = rest[0]
	if err := a.Service.Validate(*entry); err != nil {
		return usageErr("%v", err)
	}

	if !a.Service.Upsert(ctx, *entry) {
		return fmt.Errorf("could not save %q", entry.Word)
	}
	fmt.Fprintf(a.Out, "saved %s\n", entry.Word)
	return nil
}

func runRemove(ctx context.Context, a *App, args []string) error {
	rest, err := parse(newFlags("remove", a), args, 1, -1)
	if err != nil {
		return err
	}
	for _, word := range rest {
		if !a.Service.Remove(ctx, word) {
			return fmt.Errorf("could not remove %q", word)
		}
	}
	fmt.Fprintf(a.Out, "removed %d word(s)\n", len(rest))
	return nil
}

func runExists(ctx context.Context, a *App, args []string) error {
	rest, err := parse(newFlags("exists", a), args, 1, 1)
	if err != nil {
		return err
	}
	ok := a.Service.Exists(ctx, rest[0])
	fmt.Fprintln(a.Out, ok)
	if !ok {
		return errNo
	}
	return nil
}

func runCount(ctx context.Context, a *App, args []string) error {
	if _, err := parse(newFlags("count", a), args, 0, 0); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, a.Service.Count(ctx))
	return nil
}

func runClear(ctx context.Context, a *App, args []string) error {
	fs := newFlags("clear", a)
	yes := fs.Bool("yes", false, "confirm deleting everything")
	if _, err := parse(fs, args, 0, 0); err != nil {
		return err
	}
	if !*yes {
		return usageErr("refusing to delete every word without --yes")
	}
	if !a.Service.ClearAll(ctx) {
		return fmt.Errorf("could not clear the vocabulary")
	}
	fmt.Fprintln(a.Out, "vocabulary cleared")
	return nil
}

func runList(ctx context.Context, a *App, args []string) error {
	if _, err := parse(newFlags("list", a), args, 0, 0); err != nil {
		return err
	}
	return printEntries(a.Out, a.Service.List(ctx))
}

func runSearch(ctx context.Context, a *App, args []string) error {
	rest, err := parse(newFlags("search", a), args, 1, 1)
	if err != nil {
		return err
	}
	return printEntries(a.Out, a.Service.Search(ctx, rest[0]))
}

func printEntries(w io.Writer, entries []models.VocabularyEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tTRANSLATION\tPHONETIC\tLANGUAGES\tADDED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			e.Word, e.Translation, e.Phonetic, languages(e), e.Created().Local().Format(timeLayout))
	}
	return tw.Flush()
}

func languages(e models.VocabularyEntry) string {
	if e.FromLanguage == "" && e.ToLanguage == "" {
		return ""
	}
	return e.FromLanguage + "->" + e.ToLanguage
}

func runQueue(ctx context.Context, a *App, args []string) error {
	fs := newFlags("queue", a)
	limit := fs.Int("limit", a.Config.Review.QueueLimit, "maximum number of words")
	all := fs.Bool("all", false, "include words that are not due yet")
	if _, err := parse(fs, args, 0, 0); err != nil {
		return err
	}

	items := a.Service.ReviewQueue(ctx, *limit, !*all)
	tw := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tLEVEL\tNEXT REVIEW\tTRANSLATION")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n",
			item.Word, item.Progress.Proficiency, nextReview(item.Progress), item.Translation)
	}
	return tw.Flush()
}

func nextReview(p models.ReviewProgress) string {
	next, ok := p.NextReview()
	if !ok {
		return "now"
	}
	return next.Local().Format(timeLayout)
}

func runProgress(ctx context.Context, a *App, args []string) error {
	rest, err := parse(newFlags("progress", a), args, 1, 1)
	if err != nil {
		return err
	}
	p, ok := a.Service.GetProgress(ctx, rest[0])
	if !ok {
		fmt.Fprintf(a.Out, "%s has not been reviewed yet\n", rest[0])
		return errNo
	}
	printProgress(a.Out, rest[0], p)
	return nil
}

func printProgress(w io.Writer, word string, p models.ReviewProgress) {
	fmt.Fprintf(w, "word:        %s\n", word)
	fmt.Fprintf(w, "level:       %d/%d\n", p.Proficiency, models.MaxProficiency)
	fmt.Fprintf(w, "reviews:     %d (%d remembered, %d forgotten)\n", p.ReviewCount, p.SuccessCount, p.FailCount)
	if p.LastReviewedAt != nil {
		fmt.Fprintf(w, "last review: %s\n", time.UnixMilli(*p.LastReviewedAt).Local().Format(timeLayout))
	}
	fmt.Fprintf(w, "next review: %s\n", nextReview(p))
	fmt.Fprintf(w, "status:      %s\n", status(p, time.Now()))
}

func status(p models.ReviewProgress, now time.Time) string {
	switch {
	case p.IsMastered():
		return "mastered"
	case p.IsDue(now):
		return "due"
	}
	return "scheduled"
}

func runReview(ctx context.Context, a *App, args []string) error {
	rest, err := parse(newFlags("review", a), args, 2, 2)
	if err != nil {
		return err
	}
	outcome, err := models.ParseOutcome(rest[1])
	if err != nil {
		return usageErr("%v", err)
	}
	p, ok := a.Service.ApplyReviewResult(ctx, rest[0], outcome)
	if !ok {
		return fmt.Errorf("could not record a review for %q", rest[0])
	}
	printProgress(a.Out, rest[0], p)
	return nil
}

func runClearProgress(ctx context.Context, a *App, args []string) error {
	fs := newFlags("clear-progress", a)
	yes := fs.Bool("yes", false, "confirm resetting every word")
	rest, err := parse(fs, args, 0, -1)
	if err != nil {
		return err
	}
	if len(rest) == 0 && !*yes {
		return usageErr("name the words to reset, or pass --yes to reset all of them")
	}
	if !a.Service.ClearProgress(ctx, rest...) {
		return fmt.Errorf("could not clear progress")
	}
	fmt.Fprintln(a.Out, "progress cleared")
	return nil
}

func runStats(ctx context.Context, a *App, args []string) error {
	if _, err := parse(newFlags("stats", a), args, 0, 0); err != nil {
		return err
	}
	stats := a.Service.Statistics(ctx)
	fmt.Fprintf(a.Out, "total:    %d\ndue:      %d\nmastered: %d\n", stats.Total, stats.Due, stats.Mastered)
	return nil
}

func runPath(_ context.Context, a *App, args []string) error {
	if _, err := parse(newFlags("path", a), args, 0, 0); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, a.Service.StorePath())
	return nil
}

func runHealth(ctx context.Context, a *App, args []string) error {
	if _, err := parse(newFlags("health", a), args, 0, 0); err != nil {
		return err
	}
	state := a.Service.Health(ctx)
	fmt.Fprintf(a.Out, "store: %s\nstate: %s\n", a.Service.StorePath(), state)
	intervals := make([]string, 0)
	for _, d := range a.Service.Intervals() {
		intervals = append(intervals, d.String())
	}
	fmt.Fprintf(a.Out, "ladder: %s\n", strings.Join(intervals, " "))
	if state.Reason != nil {
		return errNo
	}
	return nil
}

func runStudy(ctx context.Context, a *App, args []string) error {
	fs := newFlags("study", a)
	limit := fs.Int("limit", a.Config.Review.QueueLimit, "maximum number of words")
	if _, err := parse(fs, args, 0, 0); err != nil {
		return err
	}

	sum, err := study.NewSession(a.Service, a.In, a.Out, *limit).Run(ctx)
	fmt.Fprintf(a.Out, "\nreviewed %d of %d: %d remembered, %d hard, %d forgotten, %d skipped\n",
		sum.Reviewed(), sum.Shown, sum.Remembered, sum.Hard, sum.Forgotten, sum.Skipped)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d answer(s) could not be saved", sum.Failed)
	}
	return nil
}

func runImport(ctx context.Context, a *App, args []string) error {
	cfg := excel.DefaultImportConfig()
	fs := newFlags("import", a)
	fs.StringVar(&cfg.SheetName, "sheet", "", "sheet to read, first sheet when empty")
	fs.IntVar(&cfg.StartRow, "start-row", cfg.StartRow, "first data row (1-based)")
	fs.BoolVar(&cfg.Upsert, "upsert", false, "replace fields of words that already exist")
	fs.BoolVar(&cfg.StripHints, "strip-hints", false, `drop parenthesized hints from words, "go (went, gone)" becomes "go"`)
	rest, err := parse(fs, args, 1, 1)
	if err != nil {
		return err
	}
	cfg.FilePath = rest[0]

	result, err := excel.ImportWords(ctx, a.Service, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "processed %d: %d created, %d updated, %d skipped\n",
		result.TotalProcessed, result.Created, result.Updated, result.Skipped)
	for _, msg := range result.Errors {
		fmt.Fprintln(a.Err, msg)
	}
	if len(result.Errors) > 0 {
		return errNo
	}
	return nil
}

func runExport(ctx context.Context, a *App, args []string) error {
	rest, err := parse(newFlags("export", a), args, 1, 1)
	if err != nil {
		return err
	}
	n, err := excel.ExportWords(ctx, a.Service, rest[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "exported %d word(s) to %s\n", n, rest[0])
	return nil
}

func runRemind(ctx context.Context, a *App, args []string) error {
	fs := newFlags("remind", a)
	daemon := fs.Bool("daemon", false, "keep running and check every reminder.interval")
	if _, err := parse(fs, args, 0, 0); err != nil {
		return err
	}

	build := a.Notifiers
	if build == nil {
		build = a.DefaultNotifiers
	}
	notifiers, err := build()
	if err != nil {
		return err
	}

	s := scheduler.New(a.Service, scheduler.Config{
		Interval:  a.Config.Reminder.Interval,
		StartHour: a.Config.Reminder.StartHour,
		EndHour:   a.Config.Reminder.EndHour,
	}, a.Logger, notifiers...)

	if !*daemon {
		sent, err := s.RunManualCheck(ctx)
		if err != nil {
			return err
		}
		if sent {
			fmt.Fprintln(a.Out, "reminder sent")
		} else {
			fmt.Fprintln(a.Out, "nothing due")
		}
		return nil
	}

	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Stop()
	<-ctx.Done()
	a.Logger.Info("reminder scheduler stopped")
	return nil
}
