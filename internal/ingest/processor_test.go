package ingest

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/croftwell/adaptivefeed/internal/content"
)

// encode is a test helper that panics-free encodes an envelope.
func encode(t *testing.T, env *Envelope) []byte {
	t.Helper()
	data, err := EncodeEnvelope(env)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	return data
}

// TestProcessorPublishThenUpdate verifies publish inserts and a replay with
// the same slug updates in place.
func TestProcessorPublishThenUpdate(t *testing.T) {
	repo := content.NewInMemoryRepository()
	p := NewProcessor(repo, nil, nil)

	doc := testDocument("agents-101")
	if err := p.Handle(websocket.BinaryMessage, encode(t, &Envelope{
		Kind: EventPublish, Slug: doc.Slug, Document: doc,
	})); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	doc2 := testDocument("agents-101")
	doc2.Title = "Agents 101, revised"
	if err := p.Handle(websocket.BinaryMessage, encode(t, &Envelope{
		Kind: EventUpdate, Slug: doc2.Slug, Document: doc2,
	})); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	got, err := repo.GetBySlug("agents-101")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Title != "Agents 101, revised" {
		t.Errorf("update not applied: %s", got.Title)
	}

	s := p.Stats()
	if s.Inserted() != 1 || s.Updated() != 1 {
		t.Errorf("unexpected stats: %s", s)
	}
}

// TestProcessorUnpublish verifies unpublish soft-deletes and replays are
// tolerated silently.
func TestProcessorUnpublish(t *testing.T) {
	repo := content.NewInMemoryRepository()
	p := NewProcessor(repo, nil, nil)

	doc := testDocument("short-lived")
	_ = p.Handle(websocket.BinaryMessage, encode(t, &Envelope{
		Kind: EventPublish, Slug: doc.Slug, Document: doc,
	}))

	unpub := encode(t, &Envelope{Kind: EventUnpublish, Slug: "short-lived"})
	if err := p.Handle(websocket.BinaryMessage, unpub); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if _, err := repo.GetBySlug("short-lived"); err != content.ErrItemDeleted {
		t.Errorf("expected ErrItemDeleted, got %v", err)
	}

	// Replay and unknown-slug unpublish are both no-ops.
	if err := p.Handle(websocket.BinaryMessage, unpub); err != nil {
		t.Fatalf("replay handle failed: %v", err)
	}
	if err := p.Handle(websocket.BinaryMessage, encode(t, &Envelope{
		Kind: EventUnpublish, Slug: "never-existed",
	})); err != nil {
		t.Fatalf("unknown-slug handle failed: %v", err)
	}

	if p.Stats().Unpublished() != 1 {
		t.Errorf("expected 1 unpublish, got %s", p.Stats())
	}
}

// TestProcessorRejectsMalformedFrames verifies bad payloads are counted and
// never kill the connection.
func TestProcessorRejectsMalformedFrames(t *testing.T) {
	repo := content.NewInMemoryRepository()
	p := NewProcessor(repo, nil, nil)

	if err := p.Handle(websocket.BinaryMessage, []byte{0xff, 0x13}); err != nil {
		t.Fatalf("malformed frame should not error the connection: %v", err)
	}
	if p.Stats().Rejected() != 1 {
		t.Errorf("expected 1 rejection, got %s", p.Stats())
	}
}

// TestProcessorIgnoresTextFrames verifies non-binary frames are skipped.
func TestProcessorIgnoresTextFrames(t *testing.T) {
	repo := content.NewInMemoryRepository()
	p := NewProcessor(repo, nil, nil)

	if err := p.Handle(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatalf("text frame should be ignored: %v", err)
	}
	if p.Stats().Total() != 0 {
		t.Errorf("text frame was counted: %s", p.Stats())
	}
}

// TestProcessorMapsDocumentFields verifies the full document maps onto the
// repository model.
func TestProcessorMapsDocumentFields(t *testing.T) {
	repo := content.NewInMemoryRepository()
	p := NewProcessor(repo, nil, nil)

	doc := &Document{
		Slug:            "full-map",
		Title:           "Full mapping",
		Excerpt:         "All fields set",
		Body:            "Body text",
		Category:        "research",
		Tags:            []string{"rag", "embeddings"},
		Difficulty:      "advanced",
		ReadTimeMinutes: 22,
		TargetAudience:  []string{"researcher"},
		PublishedAt:     time.Date(2025, 5, 20, 9, 0, 0, 0, time.UTC),
	}
	_ = p.Handle(websocket.BinaryMessage, encode(t, &Envelope{
		Kind: EventPublish, Slug: doc.Slug, Document: doc,
	}))

	got, err := repo.GetBySlug("full-map")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Category != "research" || got.Difficulty != "advanced" || got.ReadTimeMinutes != 22 {
		t.Errorf("fields not mapped: %+v", got)
	}
	if len(got.Tags) != 2 || len(got.TargetAudience) != 1 {
		t.Errorf("slices not mapped: tags=%v audience=%v", got.Tags, got.TargetAudience)
	}
	if !got.PublishedAt.Equal(doc.PublishedAt) {
		t.Errorf("published_at not mapped: %v", got.PublishedAt)
	}
}
