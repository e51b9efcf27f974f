package ingest

import (
	"errors"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/croftwell/adaptivefeed/internal/content"
	"github.com/croftwell/adaptivefeed/internal/stats"
)

// Processor applies firehose events to the content repository and keeps
// running ingest statistics. Its Handle method satisfies MessageHandler.
type Processor struct {
	repo   content.Repository
	stats  *stats.IngestStats
	logger *slog.Logger
}

// NewProcessor creates a processor writing into the given repository.
func NewProcessor(repo content.Repository, ingestStats *stats.IngestStats, logger *slog.Logger) *Processor {
	if ingestStats == nil {
		ingestStats = stats.NewIngestStats()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		repo:   repo,
		stats:  ingestStats,
		logger: logger,
	}
}

// Stats returns the processor's cumulative ingest statistics.
func (p *Processor) Stats() *stats.IngestStats {
	return p.stats
}

// Handle decodes one firehose frame and applies it. Malformed frames are
// counted as rejected and skipped; only binary frames carry events. A nil
// error is always returned for per-event failures so the connection survives
// bad records.
func (p *Processor) Handle(messageType int, payload []byte) error {
	if messageType != websocket.BinaryMessage {
		return nil
	}

	env, err := DecodeEnvelope(payload)
	if err != nil {
		p.stats.RecordReject()
		p.logger.Warn("rejected firehose event", slog.String("error", err.Error()))
		return nil
	}

	if err := p.Apply(env); err != nil {
		p.logger.Error("failed to apply firehose event",
			slog.String("kind", env.Kind),
			slog.String("slug", env.Slug),
			slog.String("error", err.Error()))
	}
	return nil
}

// Apply executes a single decoded event against the repository.
func (p *Processor) Apply(env *Envelope) error {
	switch env.Kind {
	case EventPublish, EventUpdate:
		result, err := p.repo.Upsert(itemFromDocument(env.Document))
		if err != nil {
			p.stats.RecordReject()
			return err
		}
		if result.Inserted {
			p.stats.RecordInsert()
		} else {
			p.stats.RecordUpdate()
		}
		p.logger.Debug("ingested content item",
			slog.String("slug", env.Slug),
			slog.String("node_id", result.ID),
			slog.Bool("inserted", result.Inserted))
		return nil

	case EventUnpublish:
		item, err := p.repo.GetBySlug(env.Slug)
		if err != nil {
			if errors.Is(err, content.ErrItemNotFound) || errors.Is(err, content.ErrItemDeleted) {
				// Unpublish replays are expected on reconnect.
				return nil
			}
			p.stats.RecordReject()
			return err
		}
		if err := p.repo.Unpublish(item.ID); err != nil {
			if errors.Is(err, content.ErrItemDeleted) {
				return nil
			}
			p.stats.RecordReject()
			return err
		}
		p.stats.RecordUnpublish()
		p.logger.Debug("unpublished content item", slog.String("slug", env.Slug))
		return nil
	}

	p.stats.RecordReject()
	return ErrUnknownEvent
}

// itemFromDocument maps a firehose document onto the repository model.
func itemFromDocument(doc *Document) *content.Item {
	return &content.Item{
		Slug:            doc.Slug,
		Title:           doc.Title,
		Excerpt:         doc.Excerpt,
		Body:            doc.Body,
		Category:        doc.Category,
		Tags:            append([]string(nil), doc.Tags...),
		Difficulty:      doc.Difficulty,
		ReadTimeMinutes: doc.ReadTimeMinutes,
		TargetAudience:  append([]string(nil), doc.TargetAudience...),
		PublishedAt:     doc.PublishedAt,
	}
}
