package model_test

import (
	"errors"
	"testing"

	"github.com/okian/tubesense/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseMode(t *testing.T) {
	convey.Convey("Given user supplied run modes", t, func() {
		convey.Convey("When the mode is empty or an alias", func() {
			for _, in := range []string{"", "all", "ALL", " analyze "} {
				m, err := model.ParseMode(in)
				convey.So(err, convey.ShouldBeNil)
				convey.So(m, convey.ShouldEqual, model.ModeAll)
			}
		})

		convey.Convey("When the mode is a single pass", func() {
			m, err := model.ParseMode("engagement")
			convey.So(err, convey.ShouldBeNil)
			convey.So(m.Engagement(), convey.ShouldBeTrue)
			convey.So(m.Weighted(), convey.ShouldBeFalse)

			m, err = model.ParseMode("Weighted")
			convey.So(err, convey.ShouldBeNil)
			convey.So(m.Engagement(), convey.ShouldBeFalse)
			convey.So(m.Weighted(), convey.ShouldBeTrue)
		})

		convey.Convey("When the mode is unknown", func() {
			_, err := model.ParseMode("toxicity")
			convey.So(errors.Is(err, model.ErrInvalidMode), convey.ShouldBeTrue)
		})

		convey.Convey("Then the combined mode derives both summaries", func() {
			convey.So(model.ModeAll.Engagement(), convey.ShouldBeTrue)
			convey.So(model.ModeAll.Weighted(), convey.ShouldBeTrue)
		})
	})
}
