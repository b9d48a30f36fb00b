// Package aggregate folds weighted comments into per-video and per-channel
// sentiment and topic statistics.
package aggregate

import (
	"math"

	"github.com/okian/tubesense/internal/domain/labels"
)

// Accumulator keeps full-precision weighted sums for a set of comments.
// It is not safe for concurrent use.
type Accumulator struct {
	sentiments []labels.Sentiment

	comments          int
	sentimentComments int
	topicAssignments  int

	totalWeight     float64
	sentimentWeight float64
	sentimentSum    map[labels.Sentiment]float64

	topicImpact map[labels.Topic]float64
	// impact of sentiment-bearing comments per topic, and its split by sentiment
	topicSentimentImpact map[labels.Topic]float64
	topicSentiment       map[labels.Topic]map[labels.Sentiment]float64
}

// NewAccumulator returns an empty accumulator. sentiments is the closed label
// set every per-topic sentiment mapping is expressed over.
func NewAccumulator(sentiments []labels.Sentiment) *Accumulator {
	s := make([]labels.Sentiment, len(sentiments))
	copy(s, sentiments)
	return &Accumulator{
		sentiments:           s,
		sentimentSum:         make(map[labels.Sentiment]float64),
		topicImpact:          make(map[labels.Topic]float64),
		topicSentimentImpact: make(map[labels.Topic]float64),
		topicSentiment:       make(map[labels.Topic]map[labels.Sentiment]float64),
	}
}

// Add folds one comment. dist may be nil when the comment carries no
// sentiment; topics may be empty. Distributions are scaled to unit mass so
// rounded model output still normalises to 1.
func (a *Accumulator) Add(weight float64, dist labels.Distribution, topics []labels.TopicScore) {
	if weight <= 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return
	}
	a.comments++
	a.totalWeight += weight

	mass := 0.0
	for _, p := range dist {
		mass += p
	}
	hasSentiment := mass > 0
	if hasSentiment {
		a.sentimentComments++
		a.sentimentWeight += weight
		for label, p := range dist {
			a.sentimentSum[label] += p / mass * weight
		}
	}

	for _, ts := range topics {
		a.topicAssignments++
		impact := ts.Score * weight
		a.topicImpact[ts.Label] += impact
		if !hasSentiment {
			continue
		}
		a.topicSentimentImpact[ts.Label] += impact
		per := a.topicSentiment[ts.Label]
		if per == nil {
			per = make(map[labels.Sentiment]float64, len(a.sentiments))
			a.topicSentiment[ts.Label] = per
		}
		for label, p := range dist {
			per[label] += p / mass * impact
		}
	}
}

// Merge adds every sum of other into a.
func (a *Accumulator) Merge(other *Accumulator) {
	if other == nil {
		return
	}
	a.comments += other.comments
	a.sentimentComments += other.sentimentComments
	a.topicAssignments += other.topicAssignments
	a.totalWeight += other.totalWeight
	a.sentimentWeight += other.sentimentWeight
	for label, v := range other.sentimentSum {
		a.sentimentSum[label] += v
	}
	for topic, v := range other.topicImpact {
		a.topicImpact[topic] += v
	}
	for topic, v := range other.topicSentimentImpact {
		a.topicSentimentImpact[topic] += v
	}
	for topic, per := range other.topicSentiment {
		dst := a.topicSentiment[topic]
		if dst == nil {
			dst = make(map[labels.Sentiment]float64, len(per))
			a.topicSentiment[topic] = dst
		}
		for label, v := range per {
			dst[label] += v
		}
	}
}

// Comments returns the number of comments folded in.
func (a *Accumulator) Comments() int { return a.comments }

// SentimentComments returns the number of comments that carried a sentiment distribution.
func (a *Accumulator) SentimentComments() int { return a.sentimentComments }

// TopicAssignments returns the number of topic assignments folded in.
func (a *Accumulator) TopicAssignments() int { return a.topicAssignments }

// TotalWeight returns the summed weight of every comment folded in.
func (a *Accumulator) TotalWeight() float64 { return a.totalWeight }
