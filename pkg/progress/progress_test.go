package progress_test

import (
	"bytes"
	"testing"

	"github.com/okian/tubesense/pkg/progress"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBar(t *testing.T) {
	Convey("Given a bar writing to a buffer", t, func() {
		var buf bytes.Buffer
		bar := progress.NewBar(progress.WithWriter(&buf))

		Convey("When steps are reported before Start", func() {
			Convey("Then they are ignored", func() {
				So(func() { bar.Step("early"); bar.Finish() }, ShouldNotPanic)
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When a batch runs to completion", func() {
			bar.Start(2, "Processing channel UC1")
			bar.Step("a.json")
			bar.Step("b.json")
			bar.Finish()

			Convey("Then progress is rendered", func() {
				So(buf.String(), ShouldContainSubstring, "2/2")
			})

			Convey("Then later steps are ignored", func() {
				So(func() { bar.Step("c.json") }, ShouldNotPanic)
			})
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Given the no-op reporter", t, func() {
		r := progress.Nop()

		Convey("Then every call is accepted", func() {
			So(func() {
				r.Start(3, "x")
				r.Step("y")
				r.Finish()
			}, ShouldNotPanic)
		})
	})
}
