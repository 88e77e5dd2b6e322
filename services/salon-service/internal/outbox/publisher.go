package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/glamflow/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Publisher struct {
	db        TxBeginner
	repo      *Repository
	logger    *slog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int
	onPublish func(eventType string)
}

type PublisherConfig struct {
	Brokers   string
	PollEvery time.Duration
	BatchSize int
	// OnPublish is called once per delivered event.
	OnPublish func(eventType string)
}

func NewPublisher(db TxBeginner, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		db:        db,
		repo:      repo,
		logger:    logger,
		brokers:   kafkax.SplitBrokers(cfg.Brokers),
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
		onPublish: cfg.OnPublish,
	}
}

// Run polls the outbox until ctx ends. Without brokers it returns at once and
// events stay in the table.
func (p *Publisher) Run(ctx context.Context) error {
	if len(p.brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return nil
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(p.brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	defer writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := p.PublishBatch(ctx, writer)
			if err != nil {
				p.logger.Error("outbox publish failed", "err", err)
				continue
			}
			if n > 0 {
				p.logger.Debug("outbox batch published", "count", n)
			}
		}
	}
}

// PublishBatch sends one batch and marks it published in the same
// transaction that locked it.
func (p *Publisher) PublishBatch(ctx context.Context, writer MessageWriter) (int, error) {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, tx.Commit(ctx)
	}

	msgs := make([]kafka.Message, 0, len(records))
	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		msgs = append(msgs, Message(ctx, rec))
		ids = append(ids, rec.ID)
	}
	if err := writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, err
	}
	if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	if p.onPublish != nil {
		for _, rec := range records {
			p.onPublish(rec.EventType)
		}
	}
	return len(records), nil
}

// Message converts an outbox row into a Kafka message keyed by aggregate, so
// all events of one appointment land on one partition in order.
func Message(ctx context.Context, rec Record) kafka.Message {
	return kafka.Message{
		Topic:   rec.EventType,
		Key:     []byte(rec.AggregateID),
		Value:   rec.Payload,
		Headers: kafkax.EventHeaders(rec.Trace.Into(ctx), rec.EventID, rec.EventType),
	}
}
