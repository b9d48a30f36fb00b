// Command gen-channel writes a synthetic channel directory for demos and load runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/tubesense/internal/adapters/repository"
	"github.com/okian/tubesense/internal/config"
	"github.com/okian/tubesense/internal/fixtures"
	"github.com/okian/tubesense/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gen-channel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dataRoot := fs.String("data-root", "", "directory holding one folder per channel (default from config)")
	channel := fs.String("channel", "UCsynthetic", "channel id (directory name)")
	videos := fs.Int("videos", fixtures.DefaultVideos, "number of video records")
	comments := fs.Int("comments", fixtures.DefaultComments, "maximum comments per video")
	seed := fs.Uint64("seed", 1, "random seed; equal seeds give identical files")
	latest := fs.String("latest", "", "publish date of the newest video (YYYY-MM-DD, default 2024-06-01)")
	undatedEvery := fs.Int("undated-every", 0, "leave published_at off every Nth video")
	noSentiment := fs.Float64("no-sentiment-rate", 0.05, "share of comments without a sentiment distribution")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if err := logger.Init(); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return 1
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if *dataRoot != "" {
		cfg.DataRoot = *dataRoot
	}
	tax, err := cfg.Taxonomy()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	gen := fixtures.Config{
		ChannelID:       *channel,
		Videos:          *videos,
		Comments:        *comments,
		Seed:            *seed,
		UndatedEvery:    *undatedEvery,
		NoSentimentRate: *noSentiment,
		Taxonomy:        tax,
		Logger:          logger.New(stderr),
	}
	if *latest != "" {
		t, err := time.Parse(time.DateOnly, *latest)
		if err != nil {
			fmt.Fprintln(stderr, "error: --latest must be YYYY-MM-DD")
			return 2
		}
		gen.Latest = t.Add(12 * time.Hour)
	}

	store := repository.NewFileStore(cfg.DataRoot)
	m, err := fixtures.Generate(ctx, store, gen)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	fmt.Fprintf(stdout, "wrote %d videos (%d comments, %d undated) to %s/%s\n",
		len(m.Files), m.Comments, m.Undated, cfg.DataRoot, m.ChannelID)
	return 0
}
