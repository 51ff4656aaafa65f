package eventpublisher

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/usecase"
)

// ErrQueueFull is returned by Notify when the outbound queue is saturated.
// The notification is already stored at that point.
var ErrQueueFull = errors.New("notification queue full")

// Publisher delivers stored notifications to an external system.
type Publisher interface {
	Publish(ctx context.Context, n *domain.Notification) error
}

// Dispatcher implements usecase.Notifier. Notify stores the notification in
// the user's inbox and queues it; Start drains the queue to a Publisher.
type Dispatcher struct {
	repo      usecase.NotificationRepository
	publisher Publisher
	idGen     usecase.IDGenerator
	logger    zerolog.Logger
	queue     chan *domain.Notification
	batchSize int
	interval  time.Duration
	now       func() time.Time
}

// Config for Dispatcher.
type Config struct {
	Repo      usecase.NotificationRepository
	Publisher Publisher
	IDGen     usecase.IDGenerator
	Logger    zerolog.Logger
	QueueSize int
	BatchSize int           // Number of notifications published per tick
	Interval  time.Duration // Polling interval
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1024
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = time.Second
	}

	return &Dispatcher{
		repo:      cfg.Repo,
		publisher: cfg.Publisher,
		idGen:     cfg.IDGen,
		logger:    cfg.Logger,
		queue:     make(chan *domain.Notification, cfg.QueueSize),
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
		now:       time.Now,
	}
}

// Notify stores n and queues it for publishing.
func (d *Dispatcher) Notify(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = d.idGen.Generate()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.now().UTC()
	}

	if err := d.repo.Create(ctx, n); err != nil {
		return err
	}

	select {
	case d.queue <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start publishes queued notifications until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info().
		Int("batch_size", d.batchSize).
		Dur("interval", d.interval).
		Msg("notification dispatcher started")

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("notification dispatcher shutting down")
			return ctx.Err()
		case <-ticker.C:
			d.processBatch(ctx)
		}
	}
}

// processBatch publishes up to batchSize queued notifications. Failures are
// logged and skipped; the inbox copy remains.
func (d *Dispatcher) processBatch(ctx context.Context) int {
	published := 0
	for i := 0; i < d.batchSize; i++ {
		var n *domain.Notification
		select {
		case n = <-d.queue:
		default:
			return published
		}

		if err := d.publisher.Publish(ctx, n); err != nil {
			d.logger.Error().
				Err(err).
				Str("notification_id", n.ID).
				Str("kind", n.Kind).
				Msg("failed to publish notification")
			continue
		}
		published++
	}
	return published
}

// LogPublisher is a simple publisher that logs notifications.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the notification.
func (p *LogPublisher) Publish(_ context.Context, n *domain.Notification) error {
	p.logger.Info().
		Str("notification_id", n.ID).
		Str("user_id", n.UserID).
		Str("kind", n.Kind).
		Str("title", n.Title).
		Msg("notification published")
	return nil
}
