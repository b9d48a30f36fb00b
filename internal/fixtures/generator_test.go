package fixtures_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/tubesense/internal/adapters/repository"
	"github.com/okian/tubesense/internal/domain/labels"
	"github.com/okian/tubesense/internal/domain/model"
	"github.com/okian/tubesense/internal/domain/pipeline"
	"github.com/okian/tubesense/internal/fixtures"
	. "github.com/smartystreets/goconvey/convey"
)

func readDir(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		out[e.Name()] = string(data)
	}
	return out
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	cfg := fixtures.Config{
		ChannelID:       "UCsynthetic",
		Videos:          6,
		Comments:        25,
		Seed:            42,
		UndatedEvery:    3,
		NoSentimentRate: 0.1,
	}

	Convey("Given a generated channel", t, func() {
		root := t.TempDir()
		store := repository.NewFileStore(root)
		m, err := fixtures.Generate(ctx, store, cfg)
		So(err, ShouldBeNil)
		dir := filepath.Join(root, cfg.ChannelID)

		Convey("Then every video and the channel record are written", func() {
			So(m.ChannelID, ShouldEqual, cfg.ChannelID)
			So(m.Files, ShouldHaveLength, 6)
			So(m.Undated, ShouldEqual, 2)

			names, err := store.ListVideos(ctx, cfg.ChannelID)
			So(err, ShouldBeNil)
			So(names, ShouldHaveLength, 6)

			data, err := store.ReadChannel(ctx, cfg.ChannelID)
			So(err, ShouldBeNil)
			var ch map[string]any
			So(json.Unmarshal(data, &ch), ShouldBeNil)
			So(ch["channel_id"], ShouldEqual, cfg.ChannelID)
			So(ch["video_count"], ShouldEqual, float64(6))
		})

		Convey("Then the records decode and carry only taxonomy labels", func() {
			tax := labels.Default()
			comments := 0
			for _, name := range m.Files {
				data, err := store.ReadVideo(ctx, cfg.ChannelID, name)
				So(err, ShouldBeNil)
				v, err := model.DecodeVideo(data)
				So(err, ShouldBeNil)
				So(v.VideoID+".json", ShouldEqual, name)
				So(v.CommentCount, ShouldBeGreaterThanOrEqualTo, int64(len(v.Comments)))
				comments += len(v.Comments)
				for _, c := range v.Comments {
					So(c.Likes, ShouldBeGreaterThanOrEqualTo, 0)
					So(c.Replies, ShouldBeGreaterThanOrEqualTo, 0)
					res := tax.Resolve(c.Sentiment, c.Topics)
					So(res.UnknownSentiments, ShouldBeEmpty)
					So(res.UnknownTopics, ShouldBeEmpty)
				}
			}
			So(comments, ShouldEqual, m.Comments)
		})

		Convey("When the same config is generated again", func() {
			other := t.TempDir()
			_, err := fixtures.Generate(ctx, repository.NewFileStore(other), cfg)
			So(err, ShouldBeNil)

			Convey("Then the files are byte-identical", func() {
				So(readDir(t, filepath.Join(other, cfg.ChannelID)), ShouldResemble, readDir(t, dir))
			})
		})

		Convey("When another seed is used", func() {
			other := t.TempDir()
			next := cfg
			next.Seed = 43
			m2, err := fixtures.Generate(ctx, repository.NewFileStore(other), next)
			So(err, ShouldBeNil)

			Convey("Then the video ids differ", func() {
				So(m2.Files, ShouldNotResemble, m.Files)
			})
		})

		Convey("When the channel is aggregated", func() {
			rep, err := pipeline.NewDriver(store).Run(ctx, pipeline.Request{ChannelID: cfg.ChannelID})
			So(err, ShouldBeNil)

			Convey("Then dated videos are included and undated ones excluded", func() {
				So(rep.VideosFailed, ShouldEqual, 0)
				So(rep.VideosExcluded, ShouldEqual, m.Undated)
				So(rep.VideosIncluded, ShouldEqual, len(m.Files)-m.Undated)
				So(rep.ChannelWritten, ShouldBeTrue)
			})

			Convey("Then the pooled sentiment is a distribution", func() {
				So(rep.Weighted, ShouldNotBeNil)
				if len(rep.Weighted.Sentiment) > 0 {
					var sum float64
					for _, p := range rep.Weighted.Sentiment {
						So(p, ShouldBeBetweenOrEqual, 0, 1)
						sum += p
					}
					So(math.Abs(sum-1), ShouldBeLessThan, 1e-3)
				}
			})
		})
	})
}

func TestGenerateDates(t *testing.T) {
	Convey("Given a channel with a fixed newest date", t, func() {
		root := t.TempDir()
		latest := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
		m, err := fixtures.Generate(context.Background(), repository.NewFileStore(root), fixtures.Config{
			ChannelID: "UCdates",
			Videos:    3,
			Comments:  1,
			Latest:    latest,
			Spacing:   24 * time.Hour,
		})
		So(err, ShouldBeNil)

		Convey("Then videos are spaced back from the newest date", func() {
			var dates []string
			for _, name := range m.Files {
				data, err := os.ReadFile(filepath.Join(root, "UCdates", name))
				So(err, ShouldBeNil)
				v, err := model.DecodeVideo(data)
				So(err, ShouldBeNil)
				dates = append(dates, v.PublishedAt)
			}
			So(dates, ShouldResemble, []string{
				"2024-01-10T08:00:00Z",
				"2024-01-09T08:00:00Z",
				"2024-01-08T08:00:00Z",
			})
		})
	})
}

func TestGenerateValidation(t *testing.T) {
	cases := map[string]fixtures.Config{
		"missing channel":  {},
		"negative videos":  {ChannelID: "UC1", Videos: -1},
		"negative comment": {ChannelID: "UC1", Comments: -1},
		"rate above one":   {ChannelID: "UC1", NoSentimentRate: 1.5},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fixtures.Generate(context.Background(), repository.NewFileStore(t.TempDir()), cfg)
			if !errors.Is(err, fixtures.ErrInvalidConfig) {
				t.Fatalf("Generate() = %v, want ErrInvalidConfig", err)
			}
		})
	}

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := fixtures.Generate(ctx, repository.NewFileStore(t.TempDir()), fixtures.Config{ChannelID: "UC1"})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Generate() = %v, want context.Canceled", err)
		}
	})
}
