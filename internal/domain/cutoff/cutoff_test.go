package cutoff_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/tubesense/internal/domain/cutoff"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given dates in the accepted layouts", t, func() {
		want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		for _, in := range []string{"2024-03-01", "2024-03-01T00:00:00", "2024-03-01 00:00:00", "2024-03-01T00:00:00Z", " 2024-03-01 "} {
			got, ok := cutoff.Parse(in)
			So(ok, ShouldBeTrue)
			So(got.Equal(want), ShouldBeTrue)
		}

		Convey("When the value carries a zone offset", func() {
			got, ok := cutoff.Parse("2024-03-01T02:00:00+02:00")

			Convey("Then it is converted to UTC", func() {
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, want)
				So(got.Location(), ShouldEqual, time.UTC)
			})
		})

		Convey("When the value has fractional seconds", func() {
			got, ok := cutoff.Parse("2024-03-01T10:00:00.5Z")
			So(ok, ShouldBeTrue)
			So(got.Hour(), ShouldEqual, 10)
		})
	})

	Convey("Given unparsable dates", t, func() {
		for _, in := range []string{"", "yesterday", "01/03/2024", "2024-13-01"} {
			_, ok := cutoff.Parse(in)
			So(ok, ShouldBeFalse)
		}
	})
}

func TestNew(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	days := func(n int) *int { return &n }

	Convey("Given cutoff inputs", t, func() {
		Convey("When neither since nor days is given", func() {
			c, err := cutoff.New("", nil, now)
			So(err, ShouldBeNil)
			So(c.IsSet(), ShouldBeFalse)
			So(c.String(), ShouldEqual, "none")
		})

		Convey("When since and days are both given", func() {
			c, err := cutoff.New("2024-01-01", days(1), now)

			Convey("Then since wins", func() {
				So(err, ShouldBeNil)
				at, ok := c.Time()
				So(ok, ShouldBeTrue)
				So(at, ShouldEqual, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
			})
		})

		Convey("When only days is given", func() {
			c, err := cutoff.New("", days(30), now)
			So(err, ShouldBeNil)
			at, _ := c.Time()
			So(at, ShouldEqual, time.Date(2024, 5, 16, 12, 0, 0, 0, time.UTC))
		})

		Convey("When since cannot be parsed", func() {
			_, err := cutoff.New("last week", nil, now)
			So(errors.Is(err, cutoff.ErrInvalidCutoff), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "last week")
		})

		Convey("When days is negative", func() {
			_, err := cutoff.New("", days(-1), now)
			So(errors.Is(err, cutoff.ErrInvalidCutoff), ShouldBeTrue)
		})
	})
}

func TestIncludes(t *testing.T) {
	Convey("Given a cutoff on 2024-03-01", t, func() {
		c, err := cutoff.New("2024-03-01", nil, time.Now())
		So(err, ShouldBeNil)

		Convey("Then videos on or after the cutoff are included", func() {
			ok, reason := c.Includes("2024-03-01T00:00:00Z")
			So(ok, ShouldBeTrue)
			So(reason, ShouldBeEmpty)
			ok, _ = c.Includes("2024-04-01")
			So(ok, ShouldBeTrue)
		})

		Convey("Then older videos are excluded", func() {
			ok, reason := c.Includes("2024-02-29T23:59:59Z")
			So(ok, ShouldBeFalse)
			So(reason, ShouldEqual, cutoff.ReasonBeforeCutoff)
		})

		Convey("Then videos without a usable date are excluded with a warning reason", func() {
			ok, reason := c.Includes("")
			So(ok, ShouldBeFalse)
			So(reason, ShouldEqual, cutoff.ReasonNoDate)
		})
	})

	Convey("Given no cutoff", t, func() {
		c := cutoff.None()

		Convey("Then every dated video is included", func() {
			ok, _ := c.Includes("1999-01-01")
			So(ok, ShouldBeTrue)
		})

		Convey("Then undated videos are still excluded", func() {
			ok, reason := c.Includes("soon")
			So(ok, ShouldBeFalse)
			So(reason, ShouldEqual, cutoff.ReasonNoDate)
		})
	})
}
