// Command tubesense computes engagement and weighted comment metrics for
// channel directories, serves the same runs over HTTP, and lists run history.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/okian/tubesense/internal/adapters/history"
	app "github.com/okian/tubesense/internal/app"
	"github.com/okian/tubesense/internal/config"
	"github.com/okian/tubesense/internal/domain/model"
	"github.com/okian/tubesense/internal/domain/pipeline"
	"github.com/okian/tubesense/internal/domain/types"
	"github.com/okian/tubesense/pkg/logger"
	"github.com/okian/tubesense/pkg/progress"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches one invocation and returns its exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printHelp(stderr)
		return exitUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case string(model.ModeEngagement), string(model.ModeWeighted), "analyze":
		return cmdAggregate(ctx, cmd, rest, stdout, stderr)
	case "serve":
		return cmdServe(ctx, rest, stderr)
	case "runs":
		return cmdRuns(ctx, rest, stdout, stderr)
	case "help", "-h", "--help":
		printHelp(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		printHelp(stderr)
		return exitUsage
	}
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `Usage: tubesense <command> [options]

Commands:
  engagement <channel_id>   Compute view/like/comment rates per video and for the channel
  weighted <channel_id>     Compute engagement-weighted sentiment and topic metrics
  analyze <channel_id>      Run both aggregations in one pass
  serve                     Serve the HTTP API
  runs <channel_id>         List recent runs of a channel

Aggregation options:
  --data-root DIR     directory holding one folder per channel
  --since YYYY-MM-DD  only include videos published on or after this date
  --days N            only include videos published within the last N days
  --like-weight X     override the like coefficient
  --reply-weight X    override the reply coefficient
  --no-progress       disable the progress bar
  --json              print the run report as JSON

Configuration is read from TUBESENSE_CONFIG (YAML) and TUBESENSE_* variables.
`)
}

// parseInterspersed parses flags that may appear before or after positional
// arguments and returns the positional ones.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func flagsSet(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// setup loads configuration and builds the logger all commands share.
func setup(ctx context.Context, stderr io.Writer) (*config.Config, logger.Logger, error) {
	if err := logger.Init(); err != nil {
		return nil, nil, fmt.Errorf("initialize logging: %w", err)
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(stderr)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, log, nil
}

func openHistory(cfg *config.Config) (history.Store, error) {
	if cfg.HistoryPath == "" {
		return history.Nop(), nil
	}
	return history.Open(cfg.HistoryPath)
}

func newService(cfg *config.Config, log logger.Logger, hist history.Store, prog progress.Reporter) (*app.Service, error) {
	tax, err := cfg.Taxonomy()
	if err != nil {
		return nil, err
	}
	policy, err := pipeline.ParseLabelPolicy(cfg.UnknownLabelPolicy)
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(log),
		app.WithDataRoot(cfg.DataRoot),
		app.WithHistory(hist),
		app.WithTaxonomy(tax),
		app.WithCoefficients(cfg.LikeWeight, cfg.ReplyWeight),
		app.WithLabelPolicy(policy),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithProgress(prog),
	), nil
}

func cmdAggregate(ctx context.Context, name string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	dataRoot := fs.String("data-root", "", "directory holding one folder per channel (default from config)")
	since := fs.String("since", "", "only include videos published on or after this date (YYYY-MM-DD)")
	days := fs.Int("days", 0, "only include videos published within the last N days")
	likeWeight := fs.Float64("like-weight", 0, "override the like coefficient")
	replyWeight := fs.Float64("reply-weight", 0, "override the reply coefficient")
	noProgress := fs.Bool("no-progress", false, "disable the progress bar")
	asJSON := fs.Bool("json", false, "print the run report as JSON")

	pos, err := parseInterspersed(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}
	if len(pos) != 1 {
		fmt.Fprintf(stderr, "usage: tubesense %s <channel_id> [options]\n", name)
		return exitUsage
	}

	mode, err := model.ParseMode(name)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitUsage
	}
	req := pipeline.Request{ChannelID: pos[0], Mode: mode, Since: *since}
	set := flagsSet(fs)
	if set["days"] {
		if *days < 0 {
			fmt.Fprintln(stderr, "error: --days must not be negative")
			return exitUsage
		}
		d := *days
		req.Days = &d
	}
	if set["like-weight"] {
		w := *likeWeight
		req.LikeWeight = &w
	}
	if set["reply-weight"] {
		w := *replyWeight
		req.ReplyWeight = &w
	}

	cfg, log, err := setup(ctx, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	if *dataRoot != "" {
		cfg.DataRoot = *dataRoot
	}

	hist, err := openHistory(cfg)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	defer func() { _ = hist.Close() }()

	prog := progress.Nop()
	if cfg.Progress && !*noProgress {
		prog = progress.NewBar(progress.WithWriter(stderr))
	}
	svc, err := newService(cfg, log, hist, prog)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}

	runRec, rep, err := svc.Run(ctx, req)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(struct {
			Run    types.Run       `json:"run"`
			Report pipeline.Report `json:"report"`
		}{runRec, rep})
		return exitOK
	}
	printReport(stdout, runRec, rep)
	return exitOK
}

func printReport(w io.Writer, run types.Run, rep pipeline.Report) {
	fmt.Fprintf(w, "Processed channel %s (mode %s, cutoff %s) in %s\n",
		rep.ChannelID, rep.Mode, rep.Cutoff, rep.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  videos: %d seen, %d included, %d excluded, %d failed, %d written\n",
		rep.VideosSeen, rep.VideosIncluded, rep.VideosExcluded, rep.VideosFailed, rep.VideosWritten)
	if rep.Mode.Weighted() {
		fmt.Fprintf(w, "  comments weighted: %d\n", rep.CommentsWeighted)
	}
	if n := rep.UnknownSentiments + rep.UnknownTopics; n > 0 {
		fmt.Fprintf(w, "  unknown labels ignored: %d sentiment, %d topic\n", rep.UnknownSentiments, rep.UnknownTopics)
	}
	for _, s := range rep.Excluded {
		fmt.Fprintf(w, "  excluded %s: %s\n", s.File, s.Reason)
	}
	for _, s := range rep.Failures {
		fmt.Fprintf(w, "  failed %s: %s\n", s.File, s.Reason)
	}
	if rep.ChannelWritten {
		fmt.Fprintln(w, "  channel summary written")
	}
	fmt.Fprintf(w, "  run %s %s\n", run.ID, run.Status)
}

func cmdRuns(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(stderr)
	limit := fs.Int("limit", history.DefaultListLimit, "maximum number of runs to list")
	asJSON := fs.Bool("json", false, "print runs as JSON")

	pos, err := parseInterspersed(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		return exitUsage
	}
	if len(pos) != 1 || *limit < 1 {
		fmt.Fprintln(stderr, "usage: tubesense runs <channel_id> [--limit N]")
		return exitUsage
	}

	cfg, _, err := setup(ctx, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	if cfg.HistoryPath == "" {
		fmt.Fprintln(stderr, "error: run history is disabled (history_path is empty)")
		return exitError
	}
	hist, err := history.Open(cfg.HistoryPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}
	defer func() { _ = hist.Close() }()

	runs, err := hist.ListByChannel(ctx, pos[0], *limit)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitError
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(runs)
		return exitOK
	}
	if len(runs) == 0 {
		fmt.Fprintf(stdout, "no runs recorded for %s\n", pos[0])
		return exitOK
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tMODE\tSTATUS\tSTARTED\tINCLUDED\tEXCLUDED\tFAILED\tCOMMENTS\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.Mode, r.Status, r.StartedAt.UTC().Format(time.RFC3339),
			r.VideosIncluded, r.VideosExcluded, r.VideosFailed, r.CommentsWeighted,
			strings.ReplaceAll(r.Error, "\t", " "))
	}
	_ = tw.Flush()
	return exitOK
}
