// Package labels defines the closed label sets produced by the sentiment
// model and the topic taxonomy, and resolves raw model output against them.
package labels

import (
	"fmt"
	"strings"
)

// Sentiment is a label emitted by the sentiment classifier, e.g. "Positive".
type Sentiment string

// Topic is a label from the comment topic taxonomy, e.g. "Video Content".
type Topic string

// Distribution maps sentiment labels to probabilities.
type Distribution map[Sentiment]float64

// TopicScore is one accepted topic assignment with its model confidence.
type TopicScore struct {
	Label Topic
	Score float64
}

// Default label sets used when configuration does not override them.
var (
	DefaultSentiments = []string{"Negative", "Neutral", "Positive"}
	DefaultTopics     = []string{
		"Video Content",
		"Production Quality",
		"Information Value",
		"Personality",
		"Requests & Suggestions",
		"Personal Stories",
		"Technical Problems",
		"Off-Topic & Unrelated",
	}
)

// Taxonomy is the fixed set of labels the aggregation accepts.
type Taxonomy struct {
	sentiments []Sentiment
	topics     []Topic

	sentimentIndex map[string]Sentiment
	topicIndex     map[string]Topic
}

// NewTaxonomy builds a taxonomy from configured label names. Label names must
// be non-empty and unique (case-insensitively) within their set.
func NewTaxonomy(sentiments, topics []string) (*Taxonomy, error) {
	if len(sentiments) == 0 {
		return nil, fmt.Errorf("%w: no sentiment labels", ErrInvalidTaxonomy)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: no topic labels", ErrInvalidTaxonomy)
	}

	t := &Taxonomy{
		sentimentIndex: make(map[string]Sentiment, len(sentiments)),
		topicIndex:     make(map[string]Topic, len(topics)),
	}
	for _, name := range sentiments {
		key := indexKey(name)
		if key == "" {
			return nil, fmt.Errorf("%w: empty sentiment label", ErrInvalidTaxonomy)
		}
		if _, dup := t.sentimentIndex[key]; dup {
			return nil, fmt.Errorf("%w: duplicate sentiment label %q", ErrInvalidTaxonomy, name)
		}
		s := Sentiment(strings.TrimSpace(name))
		t.sentimentIndex[key] = s
		t.sentiments = append(t.sentiments, s)
	}
	for _, name := range topics {
		key := indexKey(name)
		if key == "" {
			return nil, fmt.Errorf("%w: empty topic label", ErrInvalidTaxonomy)
		}
		if _, dup := t.topicIndex[key]; dup {
			return nil, fmt.Errorf("%w: duplicate topic label %q", ErrInvalidTaxonomy, name)
		}
		tp := Topic(strings.TrimSpace(name))
		t.topicIndex[key] = tp
		t.topics = append(t.topics, tp)
	}
	return t, nil
}

// Default returns the taxonomy built from DefaultSentiments and DefaultTopics.
func Default() *Taxonomy {
	t, err := NewTaxonomy(DefaultSentiments, DefaultTopics)
	if err != nil {
		panic(err)
	}
	return t
}

// Sentiments returns the configured sentiment labels in configuration order.
func (t *Taxonomy) Sentiments() []Sentiment {
	out := make([]Sentiment, len(t.sentiments))
	copy(out, t.sentiments)
	return out
}

// Topics returns the configured topic labels in configuration order.
func (t *Taxonomy) Topics() []Topic {
	out := make([]Topic, len(t.topics))
	copy(out, t.topics)
	return out
}

// ResolveSentiment returns the canonical label for name.
func (t *Taxonomy) ResolveSentiment(name string) (Sentiment, bool) {
	s, ok := t.sentimentIndex[indexKey(name)]
	return s, ok
}

// ResolveTopic returns the canonical label for name.
func (t *Taxonomy) ResolveTopic(name string) (Topic, bool) {
	tp, ok := t.topicIndex[indexKey(name)]
	return tp, ok
}

// Resolved is the typed view of one comment's model output.
type Resolved struct {
	Sentiment Distribution
	Topics    []TopicScore

	// UnknownSentiments and UnknownTopics hold raw labels that did not match
	// the taxonomy. They contribute nothing to the typed fields.
	UnknownSentiments []string
	UnknownTopics     []string
}

// Resolve converts raw label strings into typed labels. A nil raw sentiment
// map yields a nil Distribution.
func (t *Taxonomy) Resolve(sentiment map[string]float64, topics []RawTopic) Resolved {
	var r Resolved
	if sentiment != nil {
		r.Sentiment = make(Distribution, len(sentiment))
		for name, p := range sentiment {
			s, ok := t.ResolveSentiment(name)
			if !ok {
				r.UnknownSentiments = append(r.UnknownSentiments, name)
				continue
			}
			r.Sentiment[s] += p
		}
	}
	for _, rt := range topics {
		tp, ok := t.ResolveTopic(rt.Label)
		if !ok {
			r.UnknownTopics = append(r.UnknownTopics, rt.Label)
			continue
		}
		r.Topics = append(r.Topics, TopicScore{Label: tp, Score: rt.Score})
	}
	return r
}

// RawTopic is a topic assignment as read from a record, before resolution.
type RawTopic struct {
	Label string
	Score float64
}

func indexKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
