package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var errNotACount = errors.New("not a count")

// decodeScalar decodes raw keeping numbers as json.Number.
func decodeScalar(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// parseCount converts a JSON number or a digit string (thousands separators
// allowed) to an integer. Fractional numbers are truncated toward zero.
func parseCount(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	v, err := decodeScalar(raw)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, errNotACount
		}
		return int64(f), nil
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, errNotACount
		}
		return n, nil
	default:
		return 0, errNotACount
	}
}

// CoerceCount is the lenient conversion used for video-level counters:
// missing, null, unparsable or negative values become 0.
func CoerceCount(raw json.RawMessage) int64 {
	n, err := parseCount(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseProbability decodes a number in [0,1].
func parseProbability(raw json.RawMessage) (float64, bool) {
	v, err := decodeScalar(raw)
	if err != nil {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || f < 0 || f > 1 {
		return 0, false
	}
	return f, true
}

func decodeString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
