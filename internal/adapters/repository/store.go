// Package repository stores channel directories of JSON records.
package repository

import "context"

// ChannelMetadataFile is the channel-level record inside a channel directory.
const ChannelMetadataFile = "channel_metadata.json"

// Store provides read/write access to channel directories.
type Store interface {
	// ChannelExists reports whether the channel directory is present.
	ChannelExists(ctx context.Context, channelID string) (bool, error)

	// ListVideos returns the video record file names of a channel in sorted
	// order, excluding the channel metadata record and non-JSON files.
	ListVideos(ctx context.Context, channelID string) ([]string, error)

	// ReadVideo returns the raw bytes of one video record.
	ReadVideo(ctx context.Context, channelID, name string) ([]byte, error)
	// WriteVideo atomically replaces one video record.
	WriteVideo(ctx context.Context, channelID, name string, data []byte) error

	// ReadChannel returns the raw channel metadata record.
	// Returns ErrNotFound if the channel has no metadata record yet.
	ReadChannel(ctx context.Context, channelID string) ([]byte, error)
	// WriteChannel atomically replaces the channel metadata record.
	WriteChannel(ctx context.Context, channelID string, data []byte) error
}
