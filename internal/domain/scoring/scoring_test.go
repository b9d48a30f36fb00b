package scoring_test

import (
	"math"
	"testing"

	scoring "github.com/okian/tubesense/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWeigher_Weight(t *testing.T) {
	Convey("Given a weigher with default coefficients", t, func() {
		w := scoring.NewWeigher()

		Convey("When a comment has no engagement", func() {
			Convey("Then its weight is exactly 1", func() {
				So(w.Weight(0, 0), ShouldEqual, 1.0)
			})
		})

		Convey("When a comment has 99 likes and no replies", func() {
			Convey("Then its weight is 1 + ln(100)", func() {
				So(w.Weight(99, 0), ShouldAlmostEqual, 1+math.Log(100), 1e-12)
				So(w.Weight(99, 0), ShouldAlmostEqual, 5.605170, 1e-6)
			})
		})

		Convey("When a comment has replies", func() {
			Convey("Then replies count with the reply coefficient", func() {
				So(w.Weight(0, 1), ShouldAlmostEqual, 1+1.5*math.Ln2, 1e-12)
			})
		})

		Convey("When counts are negative", func() {
			Convey("Then they are treated as zero", func() {
				So(w.Weight(-5, -1), ShouldEqual, 1.0)
			})
		})

		Convey("Then weights never drop below 1 and grow with engagement", func() {
			prev := 0.0
			for n := int64(0); n < 2000; n += 37 {
				got := w.Weight(n, n/3)
				So(got, ShouldBeGreaterThanOrEqualTo, 1.0)
				So(got, ShouldBeGreaterThanOrEqualTo, prev)
				So(w.Weight(n+1, n/3), ShouldBeGreaterThan, got)
				So(w.Weight(n, n/3+1), ShouldBeGreaterThan, got)
				prev = got
			}
		})
	})
}

func TestWeigher_Options(t *testing.T) {
	Convey("Given custom coefficients", t, func() {
		Convey("When both are zero", func() {
			w := scoring.NewWeigher(scoring.WithLikeWeight(0), scoring.WithReplyWeight(0))

			Convey("Then every comment weighs 1", func() {
				So(w.Weight(1000, 1000), ShouldEqual, 1.0)
			})
		})

		Convey("When invalid values are supplied", func() {
			w := scoring.NewWeigher(scoring.WithLikeWeight(-1), scoring.WithReplyWeight(math.NaN()))

			Convey("Then the defaults are kept", func() {
				So(w.LikeWeight(), ShouldEqual, scoring.DefaultLikeWeight)
				So(w.ReplyWeight(), ShouldEqual, scoring.DefaultReplyWeight)
			})
		})

		Convey("When the like coefficient is doubled", func() {
			w := scoring.NewWeigher(scoring.WithLikeWeight(2))

			Convey("Then the like term doubles", func() {
				So(w.Weight(9, 0), ShouldAlmostEqual, 1+2*math.Log(10), 1e-12)
			})
		})
	})
}
