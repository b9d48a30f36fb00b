package model

import (
	"encoding/json"
	"fmt"
)

// Video is a per-video record as stored in a channel directory.
type Video struct {
	raw object

	VideoID     string
	Title       string
	PublishedAt string

	// Counters coerced from arbitrary input; see CoerceCount.
	ViewCount    int64
	LikeCount    int64
	CommentCount int64

	Comments []Comment
}

// DecodeVideo parses a video record.
func DecodeVideo(data []byte) (Video, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return Video{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	v := Video{
		raw:         obj,
		VideoID:     decodeString(obj["video_id"]),
		Title:       decodeString(obj["title"]),
		PublishedAt: decodeString(obj["published_at"]),
		ViewCount:   CoerceCount(obj["view_count"]),
		LikeCount:   CoerceCount(obj["like_count"]),
	}

	if raw, ok := obj[FieldComments]; ok && !isNull(raw) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return Video{}, fmt.Errorf("%w: comments must be a list", ErrMalformedRecord)
		}
		v.Comments = make([]Comment, 0, len(items))
		for i, item := range items {
			c, err := decodeComment(item)
			if err != nil {
				return Video{}, fmt.Errorf("comments[%d]: %w", i, err)
			}
			v.Comments = append(v.Comments, c)
		}
	}

	// An explicit comment_count wins; zero, missing or unparsable falls back to
	// the number of stored comments.
	v.CommentCount = CoerceCount(obj["comment_count"])
	if v.CommentCount == 0 {
		v.CommentCount = int64(len(v.Comments))
	}
	return v, nil
}

// HasField reports whether the record carries key.
func (v Video) HasField(key string) bool {
	_, ok := v.raw[key]
	return ok
}

// WithField returns a copy of v with key set to the JSON encoding of value.
func (v Video) WithField(key string, value any) (Video, error) {
	obj, err := v.raw.with(key, value)
	if err != nil {
		return Video{}, err
	}
	out := v
	out.raw = obj
	return out, nil
}

// WithComments returns a copy of v whose comments are replaced by cs.
func (v Video) WithComments(cs []Comment) (Video, error) {
	out, err := v.WithField(FieldComments, cs)
	if err != nil {
		return Video{}, err
	}
	out.Comments = cs
	return out, nil
}

// Encode renders the record deterministically.
func (v Video) Encode() ([]byte, error) {
	return encodeDocument(v.raw)
}
