package model

import (
	"encoding/json"
	"fmt"
)

// Channel is the channel-level metadata record (channel_metadata.json).
type Channel struct {
	raw object
}

// NewChannel returns an empty channel record.
func NewChannel() Channel {
	return Channel{raw: object{}}
}

// DecodeChannel parses a channel metadata record.
func DecodeChannel(data []byte) (Channel, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return Channel{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return Channel{raw: obj}, nil
}

// Field returns the raw value stored under key.
func (c Channel) Field(key string) (json.RawMessage, bool) {
	v, ok := c.raw[key]
	return v, ok
}

// Fields returns the field names in sorted order.
func (c Channel) Fields() []string {
	return c.raw.keys()
}

// WithField returns a copy of c with key set to the JSON encoding of value.
func (c Channel) WithField(key string, value any) (Channel, error) {
	obj, err := c.raw.with(key, value)
	if err != nil {
		return Channel{}, err
	}
	return Channel{raw: obj}, nil
}

// Encode renders the record deterministically.
func (c Channel) Encode() ([]byte, error) {
	if c.raw == nil {
		return encodeDocument(object{})
	}
	return encodeDocument(c.raw)
}
