package aggregate

import (
	"math"

	"github.com/okian/tubesense/internal/domain/labels"
)

// WeightedMetrics is the normalised output persisted under weighted_metrics.
// Every mapping sums to 1 or is empty.
type WeightedMetrics struct {
	Sentiment              map[labels.Sentiment]float64                  `json:"sentiment"`
	TopicDominance         map[labels.Topic]float64                      `json:"topic_dominance"`
	TopicSpecificSentiment map[labels.Topic]map[labels.Sentiment]float64 `json:"topic_specific_sentiment"`
}

// Normalize converts the accumulated sums into distributions rounded to four
// decimals. Rounding happens here only.
func (a *Accumulator) Normalize() WeightedMetrics {
	m := WeightedMetrics{
		Sentiment:              make(map[labels.Sentiment]float64, len(a.sentimentSum)),
		TopicDominance:         make(map[labels.Topic]float64, len(a.topicImpact)),
		TopicSpecificSentiment: make(map[labels.Topic]map[labels.Sentiment]float64, len(a.topicSentiment)),
	}

	if a.sentimentWeight > 0 {
		for label, sum := range a.sentimentSum {
			m.Sentiment[label] = round4(sum / a.sentimentWeight)
		}
	}

	totalImpact := 0.0
	for _, v := range a.topicImpact {
		totalImpact += v
	}
	if totalImpact > 0 {
		for topic, v := range a.topicImpact {
			m.TopicDominance[topic] = round4(v / totalImpact)
		}
	}

	for topic, impact := range a.topicSentimentImpact {
		if impact <= 0 {
			continue
		}
		per := make(map[labels.Sentiment]float64, len(a.sentiments))
		for _, label := range a.sentiments {
			per[label] = 0
		}
		for label, v := range a.topicSentiment[topic] {
			per[label] = round4(v / impact)
		}
		m.TopicSpecificSentiment[topic] = per
	}
	return m
}

// Empty reports whether no mapping carries a value.
func (m WeightedMetrics) Empty() bool {
	return len(m.Sentiment) == 0 && len(m.TopicDominance) == 0 && len(m.TopicSpecificSentiment) == 0
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
