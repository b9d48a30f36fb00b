package model

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/okian/tubesense/internal/domain/labels"
)

// Comment is one comment of a video record.
type Comment struct {
	raw object

	// Likes and Replies are the engagement signals. They are decoded as-is;
	// negative values are the caller's precondition to reject.
	Likes   int64
	Replies int64

	// Sentiment is the raw sentiment distribution, nil when the comment was
	// never scored.
	Sentiment map[string]float64

	// Topics are the accepted topic assignments; empty when none.
	Topics []labels.RawTopic
}

func decodeComment(raw json.RawMessage) (Comment, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return Comment{}, fmt.Errorf("%w: %v", ErrMalformedComment, err)
	}
	c := Comment{raw: obj}

	if c.Likes, err = parseCount(obj["likes"]); err != nil {
		return Comment{}, fmt.Errorf("%w: likes: %v", ErrMalformedComment, err)
	}
	if c.Replies, err = parseCount(obj["num_replies"]); err != nil {
		return Comment{}, fmt.Errorf("%w: num_replies: %v", ErrMalformedComment, err)
	}
	if c.Sentiment, err = decodeSentiment(obj["sentiment"]); err != nil {
		return Comment{}, err
	}
	if c.Topics, err = decodeTopics(obj["assigned_topics"]); err != nil {
		return Comment{}, err
	}
	return c, nil
}

// decodeSentiment returns nil when the field is absent or not an object.
func decodeSentiment(raw json.RawMessage) (map[string]float64, error) {
	if isNull(raw) {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil //nolint:nilerr // a non-object sentiment is treated as absent
	}
	out := make(map[string]float64, len(fields))
	for label, v := range fields {
		p, ok := parseProbability(v)
		if !ok {
			return nil, fmt.Errorf("%w: sentiment %q must be a number in [0,1]", ErrMalformedComment, label)
		}
		out[label] = p
	}
	return out, nil
}

// decodeTopics returns nil when the field is absent or not a list.
func decodeTopics(raw json.RawMessage) ([]labels.RawTopic, error) {
	if isNull(raw) {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, nil //nolint:nilerr // a non-list assigned_topics is treated as absent
	}
	var out []labels.RawTopic
	for i, e := range entries {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(e, &entry); err != nil || entry == nil {
			return nil, fmt.Errorf("%w: assigned_topics[%d] is not an object", ErrMalformedComment, i)
		}
		label := decodeString(entry["label"])
		if label == "" {
			continue
		}
		score := 0.0
		if !isNull(entry["score"]) {
			p, ok := parseProbability(entry["score"])
			if !ok {
				return nil, fmt.Errorf("%w: assigned_topics[%d].score must be a number in [0,1]", ErrMalformedComment, i)
			}
			score = p
		}
		out = append(out, labels.RawTopic{Label: label, Score: score})
	}
	return out, nil
}

// WithWeight returns a copy of c carrying its engagement weight, rounded to
// three decimals for persistence.
func (c Comment) WithWeight(weight float64) (Comment, error) {
	obj, err := c.raw.with(FieldWeight, math.Round(weight*1000)/1000)
	if err != nil {
		return Comment{}, err
	}
	out := c
	out.raw = obj
	return out, nil
}

// MarshalJSON encodes the comment with all of its original fields.
func (c Comment) MarshalJSON() ([]byte, error) {
	if c.raw == nil {
		return []byte("{}"), nil
	}
	return marshal(c.raw)
}
