package labels_test

import (
	"errors"
	"testing"

	"github.com/okian/tubesense/internal/domain/labels"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewTaxonomy(t *testing.T) {
	Convey("Given label configuration", t, func() {
		Convey("When the defaults are used", func() {
			tax := labels.Default()

			Convey("Then every default label is present in order", func() {
				So(len(tax.Sentiments()), ShouldEqual, 3)
				So(tax.Sentiments()[0], ShouldEqual, labels.Sentiment("Negative"))
				So(len(tax.Topics()), ShouldEqual, len(labels.DefaultTopics))
			})
		})

		Convey("When the sentiment set is empty", func() {
			_, err := labels.NewTaxonomy(nil, []string{"A"})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, labels.ErrInvalidTaxonomy), ShouldBeTrue)
			})
		})

		Convey("When a topic label is duplicated ignoring case", func() {
			_, err := labels.NewTaxonomy([]string{"Positive"}, []string{"Video Content", "video content"})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, labels.ErrInvalidTaxonomy), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "duplicate topic label")
			})
		})

		Convey("When a label is blank", func() {
			_, err := labels.NewTaxonomy([]string{"  "}, []string{"A"})

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestTaxonomyResolve(t *testing.T) {
	Convey("Given the default taxonomy", t, func() {
		tax := labels.Default()

		Convey("When resolving with different casing", func() {
			s, ok := tax.ResolveSentiment(" positive ")
			tp, tok := tax.ResolveTopic("TECHNICAL PROBLEMS")

			Convey("Then the canonical labels are returned", func() {
				So(ok, ShouldBeTrue)
				So(s, ShouldEqual, labels.Sentiment("Positive"))
				So(tok, ShouldBeTrue)
				So(tp, ShouldEqual, labels.Topic("Technical Problems"))
			})
		})

		Convey("When a comment carries unknown labels", func() {
			r := tax.Resolve(
				map[string]float64{"Positive": 0.7, "Sarcastic": 0.3},
				[]labels.RawTopic{{Label: "Video Content", Score: 0.9}, {Label: "Memes", Score: 0.5}},
			)

			Convey("Then only known labels are typed and the rest are reported", func() {
				So(r.Sentiment, ShouldResemble, labels.Distribution{"Positive": 0.7})
				So(r.UnknownSentiments, ShouldResemble, []string{"Sarcastic"})
				So(r.Topics, ShouldResemble, []labels.TopicScore{{Label: "Video Content", Score: 0.9}})
				So(r.UnknownTopics, ShouldResemble, []string{"Memes"})
			})
		})

		Convey("When a comment has no sentiment", func() {
			r := tax.Resolve(nil, nil)

			Convey("Then the distribution stays nil", func() {
				So(r.Sentiment, ShouldBeNil)
				So(r.Topics, ShouldBeEmpty)
			})
		})
	})
}
