package types_test

import (
	"encoding/json"
	"testing"
	"time"

	types "github.com/okian/tubesense/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	Convey("Given a run", t, func() {
		run := types.Run{ID: "r1", ChannelID: "UC1", Mode: "all", Status: types.StatusRunning}

		Convey("When it is still running", func() {
			Convey("Then it is not done and finished_at encodes as null", func() {
				So(run.Done(), ShouldBeFalse)
				data, err := json.Marshal(run)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, `"finished_at":null`)
				So(string(data), ShouldNotContainSubstring, `"error"`)
			})
		})

		Convey("When it failed", func() {
			now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
			run.Status = types.StatusFailed
			run.FinishedAt = &now
			run.Error = "channel not found"

			Convey("Then it is done and carries the error", func() {
				So(run.Done(), ShouldBeTrue)
				data, err := json.Marshal(run)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, `"error":"channel not found"`)
			})
		})

		Convey("When it succeeded", func() {
			run.Status = types.StatusSucceeded
			So(run.Done(), ShouldBeTrue)
		})

		Convey("When it is only queued", func() {
			run.Status = types.StatusQueued
			So(run.Done(), ShouldBeFalse)
		})
	})
}
