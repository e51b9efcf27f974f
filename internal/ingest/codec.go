package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Firehose event kinds.
const (
	EventPublish   = "publish"
	EventUpdate    = "update"
	EventUnpublish = "unpublish"
)

// Firehose CBOR parsing errors.
var (
	ErrInvalidCBOR     = errors.New("invalid CBOR data")
	ErrMissingSlug     = errors.New("missing slug in event")
	ErrMissingDocument = errors.New("missing document in event")
	ErrUnknownEvent    = errors.New("unknown event kind")
)

// Document is the content payload carried by publish and update events.
type Document struct {
	Slug            string    `cbor:"slug"`
	Title           string    `cbor:"title"`
	Excerpt         string    `cbor:"excerpt,omitempty"`
	Body            string    `cbor:"body,omitempty"`
	Category        string    `cbor:"category"`
	Tags            []string  `cbor:"tags,omitempty"`
	Difficulty      string    `cbor:"difficulty,omitempty"`
	ReadTimeMinutes int       `cbor:"read_time_minutes,omitempty"`
	TargetAudience  []string  `cbor:"target_audience,omitempty"`
	PublishedAt     time.Time `cbor:"published_at"`
}

// Envelope is the top-level message structure on the firehose. Every event
// carries a kind and a slug; publish and update events also carry a document.
type Envelope struct {
	// Kind is the event type ("publish", "update", "unpublish").
	Kind string `cbor:"kind"`

	// Slug identifies the content item the event refers to.
	Slug string `cbor:"slug"`

	// TimeUS is the event timestamp in microseconds.
	TimeUS int64 `cbor:"time_us"`

	// Document contains the content payload (for publish/update).
	Document *Document `cbor:"document,omitempty"`
}

// DecodeEnvelope decodes a CBOR-encoded firehose envelope and validates its
// required fields.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	if len(data) == 0 {
		return nil, ErrInvalidCBOR
	}

	var env Envelope
	dec := cbor.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCBOR, err)
	}

	switch env.Kind {
	case EventPublish, EventUpdate:
		if env.Slug == "" {
			return nil, ErrMissingSlug
		}
		if env.Document == nil {
			return nil, ErrMissingDocument
		}
		if env.Document.Slug == "" {
			env.Document.Slug = env.Slug
		}
	case EventUnpublish:
		if env.Slug == "" {
			return nil, ErrMissingSlug
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Kind)
	}

	return &env, nil
}

// EncodeEnvelope encodes an envelope to CBOR bytes.
// Useful for testing round-trip encoding/decoding.
func EncodeEnvelope(env *Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := cbor.NewEncoder(&buf)
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("failed to encode CBOR: %w", err)
	}
	return buf.Bytes(), nil
}
