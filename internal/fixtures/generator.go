// Package fixtures generates synthetic channel directories: a channel metadata
// record plus video records whose comments carry engagement counts, sentiment
// distributions and topic assignments drawn from a label taxonomy.
//
// Generation is deterministic for a given Config, so the same seed always
// produces byte-identical files.
package fixtures

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/okian/tubesense/internal/domain/labels"
	"github.com/okian/tubesense/pkg/logger"
)

// Writer is the channel directory access the generator needs.
type Writer interface {
	EnsureChannel(ctx context.Context, channelID string) error
	WriteVideo(ctx context.Context, channelID, name string, data []byte) error
	WriteChannel(ctx context.Context, channelID string, data []byte) error
}

// ErrInvalidConfig is returned for unusable generator settings.
var ErrInvalidConfig = errors.New("invalid fixture config")

// Defaults applied by Generate to zero fields.
const (
	DefaultVideos   = 10
	DefaultComments = 40
	DefaultSpacing  = 72 * time.Hour
)

// Config describes one synthetic channel.
type Config struct {
	ChannelID string
	Title     string

	Videos int // number of video records
	// Comments is the upper bound of comments per video; each video draws
	// between 0 and Comments.
	Comments int
	Seed     uint64

	// Latest is the publish time of the newest video; older videos are
	// Spacing apart. Defaults to 2024-06-01T12:00:00Z.
	Latest  time.Time
	Spacing time.Duration

	// UndatedEvery leaves published_at off every Nth video. Zero disables it.
	UndatedEvery int
	// NoSentimentRate is the share of comments without a sentiment
	// distribution, in [0, 1].
	NoSentimentRate float64

	Taxonomy *labels.Taxonomy
	Logger   logger.Logger
}

// Manifest lists what Generate wrote.
type Manifest struct {
	ChannelID string   `json:"channel_id"`
	Files     []string `json:"files"`
	Comments  int      `json:"comments"`
	Undated   int      `json:"undated"`
}

// Engagement profile cases, from quiet to viral comments.
const (
	profileQuiet = iota
	profileTypical
	profilePopular
	profileViral
)

// Likes and replies bounds per profile.
const (
	typicalMaxLikes   = 20
	typicalMaxReplies = 3
	popularMinLikes   = 20
	popularLikesRange = 480
	popularMaxReplies = 25
	viralMinLikes     = 500
	viralLikesRange   = 19500
	viralMaxReplies   = 300

	minTopicScore   = 0.3
	maxTopicsPerRow = 2
	viewsPerComment = 150
)

var phrases = map[string][]string{
	"Negative": {"the audio is terrible", "this was a waste of time", "clickbait title again"},
	"Neutral":  {"what camera do you use?", "watched this on the train", "part two when?"},
	"Positive": {"best video this month", "this explained it perfectly", "love the editing"},
}

// generator carries the random sources of one Generate call.
type generator struct {
	cfg Config
	rng *rand.Rand
	ids *rand.ChaCha8
}

// Generate writes a channel directory through w and returns its manifest.
func Generate(ctx context.Context, w Writer, cfg Config) (Manifest, error) {
	cfg, err := withDefaults(cfg)
	if err != nil {
		return Manifest{}, err
	}
	log := cfg.Logger.Named("fixtures")
	log.Info(ctx, "generating channel",
		logger.String("channel_id", cfg.ChannelID),
		logger.Int("videos", cfg.Videos),
		logger.Int("max_comments", cfg.Comments),
		logger.Any("seed", cfg.Seed))

	if err := w.EnsureChannel(ctx, cfg.ChannelID); err != nil {
		return Manifest{}, err
	}

	g := newGenerator(cfg)
	m := Manifest{ChannelID: cfg.ChannelID}
	for i := 0; i < cfg.Videos; i++ {
		if err := ctx.Err(); err != nil {
			return m, fmt.Errorf("generation cancelled: %w", err)
		}
		v := g.video(i)
		data, err := encode(v)
		if err != nil {
			return m, err
		}
		name := v.VideoID + ".json"
		if err := w.WriteVideo(ctx, cfg.ChannelID, name, data); err != nil {
			return m, fmt.Errorf("write %s: %w", name, err)
		}
		m.Files = append(m.Files, name)
		m.Comments += len(v.Comments)
		if v.PublishedAt == "" {
			m.Undated++
		}
	}

	data, err := encode(channelRecord{
		ChannelID:       cfg.ChannelID,
		Title:           cfg.Title,
		VideoCount:      cfg.Videos,
		SubscriberCount: strconv.FormatInt(int64(g.rng.IntN(1_000_000)), 10),
	})
	if err != nil {
		return m, err
	}
	if err := w.WriteChannel(ctx, cfg.ChannelID, data); err != nil {
		return m, fmt.Errorf("write channel metadata: %w", err)
	}

	log.Info(ctx, "generated channel",
		logger.String("channel_id", cfg.ChannelID),
		logger.Int("files", len(m.Files)),
		logger.Int("comments", m.Comments))
	return m, nil
}

func withDefaults(cfg Config) (Config, error) {
	if cfg.ChannelID == "" {
		return cfg, fmt.Errorf("%w: channel id is required", ErrInvalidConfig)
	}
	if cfg.Videos < 0 || cfg.Comments < 0 || cfg.UndatedEvery < 0 {
		return cfg, fmt.Errorf("%w: counts must not be negative", ErrInvalidConfig)
	}
	if cfg.NoSentimentRate < 0 || cfg.NoSentimentRate > 1 {
		return cfg, fmt.Errorf("%w: no-sentiment rate must be within [0, 1]", ErrInvalidConfig)
	}
	if cfg.Videos == 0 {
		cfg.Videos = DefaultVideos
	}
	if cfg.Comments == 0 {
		cfg.Comments = DefaultComments
	}
	if cfg.Spacing <= 0 {
		cfg.Spacing = DefaultSpacing
	}
	if cfg.Latest.IsZero() {
		cfg.Latest = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	if cfg.Title == "" {
		cfg.Title = "Synthetic channel " + cfg.ChannelID
	}
	if cfg.Taxonomy == nil {
		cfg.Taxonomy = labels.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	return cfg, nil
}

func newGenerator(cfg Config) *generator {
	var seed, idSeed [32]byte
	binary.LittleEndian.PutUint64(seed[:8], cfg.Seed)
	binary.LittleEndian.PutUint64(idSeed[:8], cfg.Seed)
	idSeed[31] = 1
	return &generator{
		cfg: cfg,
		rng: rand.New(rand.NewChaCha8(seed)),
		ids: rand.NewChaCha8(idSeed),
	}
}

type videoRecord struct {
	VideoID      string          `json:"video_id"`
	Title        string          `json:"title"`
	PublishedAt  string          `json:"published_at,omitempty"`
	ViewCount    string          `json:"view_count"`
	LikeCount    string          `json:"like_count"`
	CommentCount string          `json:"comment_count"`
	Comments     []commentRecord `json:"comments"`
}

type commentRecord struct {
	CommentID      string             `json:"comment_id"`
	Author         string             `json:"author"`
	Comment        string             `json:"comment"`
	Likes          int                `json:"likes"`
	NumReplies     int                `json:"num_replies"`
	Sentiment      map[string]float64 `json:"sentiment,omitempty"`
	AssignedTopics []topicRecord      `json:"assigned_topics"`
}

type topicRecord struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type channelRecord struct {
	ChannelID       string `json:"channel_id"`
	Title           string `json:"title"`
	SubscriberCount string `json:"subscriber_count"`
	VideoCount      int    `json:"video_count"`
}

func (g *generator) id() string {
	u, err := uuid.NewRandomFromReader(g.ids)
	if err != nil {
		panic(err) // ChaCha8 reads never fail
	}
	return u.String()
}

// video builds the i-th video, newest first.
func (g *generator) video(i int) videoRecord {
	v := videoRecord{
		VideoID: g.id(),
		Title:   fmt.Sprintf("%s #%d", g.cfg.Title, g.cfg.Videos-i),
	}
	if g.cfg.UndatedEvery == 0 || (i+1)%g.cfg.UndatedEvery != 0 {
		v.PublishedAt = g.cfg.Latest.Add(-time.Duration(i) * g.cfg.Spacing).UTC().Format(time.RFC3339)
	}

	n := g.rng.IntN(g.cfg.Comments + 1)
	v.Comments = make([]commentRecord, n)
	for j := range v.Comments {
		v.Comments[j] = g.comment()
	}

	// The API reports more comments than were fetched.
	total := n + g.rng.IntN(n+1)
	views := (total + 1) * (1 + g.rng.IntN(viewsPerComment))
	v.ViewCount = strconv.Itoa(views)
	v.LikeCount = strconv.Itoa(g.rng.IntN(views/10 + 1))
	v.CommentCount = strconv.Itoa(total)
	return v
}

func (g *generator) comment() commentRecord {
	c := commentRecord{
		CommentID:      g.id(),
		Author:         "@viewer" + strconv.Itoa(g.rng.IntN(10_000)),
		AssignedTopics: []topicRecord{},
	}
	c.Likes, c.NumReplies = g.engagement()

	sentiments := g.cfg.Taxonomy.Sentiments()
	dominant := sentiments[g.rng.IntN(len(sentiments))]
	if g.rng.Float64() >= g.cfg.NoSentimentRate {
		c.Sentiment = g.distribution(sentiments, dominant)
	}
	c.Comment = g.text(string(dominant))

	topics := g.cfg.Taxonomy.Topics()
	k := g.rng.IntN(maxTopicsPerRow + 1)
	for _, idx := range g.rng.Perm(len(topics))[:min(k, len(topics))] {
		c.AssignedTopics = append(c.AssignedTopics, topicRecord{
			Label: string(topics[idx]),
			Score: round4(minTopicScore + (1-minTopicScore)*g.rng.Float64()),
		})
	}
	return c
}

func (g *generator) engagement() (likes, replies int) {
	switch g.rng.IntN(4) {
	case profileQuiet:
		return 0, 0
	case profileTypical:
		return g.rng.IntN(typicalMaxLikes + 1), g.rng.IntN(typicalMaxReplies + 1)
	case profilePopular:
		return popularMinLikes + g.rng.IntN(popularLikesRange), g.rng.IntN(popularMaxReplies + 1)
	case profileViral:
		return viralMinLikes + g.rng.IntN(viralLikesRange), g.rng.IntN(viralMaxReplies + 1)
	default:
		return 0, 0
	}
}

// distribution returns a probability distribution over sentiments that
// favours dominant.
func (g *generator) distribution(sentiments []labels.Sentiment, dominant labels.Sentiment) map[string]float64 {
	raw := make([]float64, len(sentiments))
	var sum float64
	for i, s := range sentiments {
		raw[i] = g.rng.Float64()
		if s == dominant {
			raw[i] += 2
		}
		sum += raw[i]
	}
	out := make(map[string]float64, len(sentiments))
	for i, s := range sentiments {
		out[string(s)] = round4(raw[i] / sum)
	}
	return out
}

func (g *generator) text(sentiment string) string {
	options, ok := phrases[sentiment]
	if !ok {
		return "comment about " + sentiment
	}
	return options[g.rng.IntN(len(options))]
}

func round4(x float64) float64 {
	return math.Round(x*1e4) / 1e4
}

// encode renders a record with sorted map keys and two-space indentation.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode fixture: %w", err)
	}
	return buf.Bytes(), nil
}
