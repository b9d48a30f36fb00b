package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/tubesense/internal/adapters/history"
	"github.com/okian/tubesense/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given an empty ledger", t, func() {
		finish := base.Add(3 * time.Second)
		store, err := history.Open(filepath.Join(t.TempDir(), "db", "runs.db"),
			history.WithClock(func() time.Time { return finish }))
		So(err, ShouldBeNil)
		Reset(func() { _ = store.Close() })

		Convey("When a run begins", func() {
			err := store.Begin(ctx, types.Run{ID: "r1", ChannelID: "UC_a", Mode: "all", Status: types.StatusQueued, StartedAt: base})
			So(err, ShouldBeNil)

			Convey("Then it can be read back as queued", func() {
				run, err := store.Get(ctx, "r1")
				So(err, ShouldBeNil)
				So(run.Status, ShouldEqual, types.StatusQueued)
				So(run.StartedAt.Equal(base), ShouldBeTrue)
				So(run.FinishedAt, ShouldBeNil)
				So(run.Done(), ShouldBeFalse)
			})

			Convey("And it runs and finishes", func() {
				So(store.MarkRunning(ctx, "r1"), ShouldBeNil)
				running, err := store.Get(ctx, "r1")
				So(err, ShouldBeNil)
				So(running.Status, ShouldEqual, types.StatusRunning)

				err = store.Finish(ctx, types.Run{
					ID: "r1", Status: types.StatusSucceeded,
					VideosIncluded: 4, VideosExcluded: 2, VideosFailed: 1, CommentsWeighted: 120,
				})
				So(err, ShouldBeNil)

				Convey("Then the counters and finish time are stored", func() {
					run, err := store.Get(ctx, "r1")
					So(err, ShouldBeNil)
					So(run.Done(), ShouldBeTrue)
					So(run.VideosIncluded, ShouldEqual, 4)
					So(run.VideosExcluded, ShouldEqual, 2)
					So(run.VideosFailed, ShouldEqual, 1)
					So(run.CommentsWeighted, ShouldEqual, 120)
					So(run.FinishedAt, ShouldNotBeNil)
					So(run.FinishedAt.Equal(finish), ShouldBeTrue)
					So(run.Mode, ShouldEqual, "all")
				})
			})

			Convey("Then beginning the same id again fails", func() {
				So(store.Begin(ctx, types.Run{ID: "r1", ChannelID: "UC_a", Mode: "all"}), ShouldNotBeNil)
			})
		})

		Convey("When a run is unknown", func() {
			_, err := store.Get(ctx, "nope")
			So(errors.Is(err, history.ErrNotFound), ShouldBeTrue)
			So(errors.Is(store.Finish(ctx, types.Run{ID: "nope", Status: types.StatusFailed}), history.ErrNotFound), ShouldBeTrue)
			So(errors.Is(store.MarkRunning(ctx, "nope"), history.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a run lacks its channel", func() {
			err := store.Begin(ctx, types.Run{ID: "r9"})
			So(errors.Is(err, history.ErrInvalidRun), ShouldBeTrue)
		})

		Convey("When several channels have runs", func() {
			for i, id := range []string{"a1", "a2", "a3"} {
				So(store.Begin(ctx, types.Run{ID: id, ChannelID: "UC_a", Mode: "all", StartedAt: base.Add(time.Duration(i) * time.Minute)}), ShouldBeNil)
			}
			So(store.Begin(ctx, types.Run{ID: "b1", ChannelID: "UC_b", Mode: "weighted", StartedAt: base}), ShouldBeNil)

			Convey("Then listing returns one channel newest first", func() {
				runs, err := store.ListByChannel(ctx, "UC_a", 0)
				So(err, ShouldBeNil)
				So(len(runs), ShouldEqual, 3)
				So(runs[0].ID, ShouldEqual, "a3")
				So(runs[2].ID, ShouldEqual, "a1")
				So(runs[0].Status, ShouldEqual, types.StatusQueued)
			})

			Convey("Then the limit is honoured", func() {
				runs, err := store.ListByChannel(ctx, "UC_a", 2)
				So(err, ShouldBeNil)
				So(len(runs), ShouldEqual, 2)
			})

			Convey("Then an unknown channel lists nothing", func() {
				runs, err := store.ListByChannel(ctx, "UC_z", 5)
				So(err, ShouldBeNil)
				So(runs, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a ledger reopened from disk", t, func() {
		path := filepath.Join(t.TempDir(), "runs.db")
		store, err := history.Open(path)
		So(err, ShouldBeNil)
		So(store.Begin(ctx, types.Run{ID: "r1", ChannelID: "UC_a", Mode: "engagement", StartedAt: base}), ShouldBeNil)
		So(store.Close(), ShouldBeNil)

		reopened, err := history.Open(path)
		So(err, ShouldBeNil)
		Reset(func() { _ = reopened.Close() })

		Convey("Then earlier runs are still there", func() {
			run, err := reopened.Get(ctx, "r1")
			So(err, ShouldBeNil)
			So(run.Mode, ShouldEqual, "engagement")
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Given the disabled ledger", t, func() {
		store := history.Nop()
		ctx := context.Background()

		So(store.Begin(ctx, types.Run{ID: "r1", ChannelID: "UC_a"}), ShouldBeNil)
		So(store.MarkRunning(ctx, "r1"), ShouldBeNil)
		So(store.Finish(ctx, types.Run{ID: "r1"}), ShouldBeNil)

		_, err := store.Get(ctx, "r1")
		So(errors.Is(err, history.ErrNotFound), ShouldBeTrue)

		runs, err := store.ListByChannel(ctx, "UC_a", 10)
		So(err, ShouldBeNil)
		So(runs, ShouldBeEmpty)
		So(store.Close(), ShouldBeNil)
	})
}
