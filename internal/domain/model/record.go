// Package model contains the persisted channel, video and comment records
// passed between layers.
//
// Records keep every JSON field they do not interpret so that rewriting a file
// never drops data owned by other tools (transcripts, raw API payloads, model
// outputs). All With* methods return new values and leave the receiver intact.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Field names owned by the aggregation pipeline.
const (
	FieldComments               = "comments"
	FieldWeight                 = "weight"
	FieldEngagementMetrics      = "engagement_metrics"
	FieldWeightedMetrics        = "weighted_metrics"
	FieldPerVideoSummary        = "per_video_engagement_summary"
	FieldWeightedMetricsSummary = "weighted_metrics_summary"
)

// object is a JSON object whose values are kept verbatim.
type object map[string]json.RawMessage

func decodeObject(data []byte) (object, error) {
	var obj object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		// literal null
		return nil, fmt.Errorf("expected a JSON object, got null")
	}
	return obj, nil
}

// with returns a copy of o with key set to the JSON encoding of v.
func (o object) with(key string, v any) (object, error) {
	raw, err := marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	out := make(object, len(o)+1)
	for k, val := range o {
		out[k] = val
	}
	out[key] = raw
	return out, nil
}

// keys returns the field names in sorted order.
func (o object) keys() []string {
	ks := make([]string, 0, len(o))
	for k := range o {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

// marshal encodes v without HTML escaping and without a trailing newline.
func marshal(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// encodeDocument renders a top-level record. Keys are sorted by encoding/json,
// so identical content always produces identical bytes.
func encodeDocument(o object) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
