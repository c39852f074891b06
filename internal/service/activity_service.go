package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bukcare/bukcare-api/internal/domain"
	"github.com/bukcare/bukcare-api/pkg/metrics"
)

type ActivityRepository interface {
	Create(ctx context.Context, a *domain.SystemActivity) error
	ListRecent(ctx context.Context, limit int) ([]*domain.SystemActivity, error)
}

type ActivityEntry struct {
	Type        domain.ActivityType
	Description string
	UserID      *uuid.UUID
	Metadata    map[string]string
}

// ActivityRecorder persists system activities asynchronously so the request
// path never waits on the feed table. Entries are dropped, with a warning,
// when the buffer is full.
type ActivityRecorder struct {
	repo    ActivityRepository
	metrics *metrics.Collector
	log     *zap.Logger
	entries chan *domain.SystemActivity
	done    chan struct{}
}

const activityBufferSize = 10_000

func NewActivityRecorder(repo ActivityRepository, collector *metrics.Collector, log *zap.Logger) *ActivityRecorder {
	rec := &ActivityRecorder{
		repo:    repo,
		metrics: collector,
		log:     log,
		entries: make(chan *domain.SystemActivity, activityBufferSize),
		done:    make(chan struct{}),
	}
	go rec.worker()
	return rec
}

func (r *ActivityRecorder) Record(ctx context.Context, entry ActivityEntry) {
	a := &domain.SystemActivity{
		ActivityType: entry.Type,
		Description:  entry.Description,
		UserID:       entry.UserID,
		Metadata:     entry.Metadata,
	}

	select {
	case r.entries <- a:
	default:
		r.metrics.ActivityDropped.Inc()
		r.log.Warn("activity buffer full, dropping entry",
			zap.String("activity_type", string(entry.Type)),
		)
	}
}

func (r *ActivityRecorder) Shutdown() {
	close(r.entries)
	select {
	case <-r.done:
	case <-time.After(10 * time.Second):
		r.log.Warn("activity recorder shutdown timed out; some entries may be lost")
	}
}

func (r *ActivityRecorder) worker() {
	defer close(r.done)
	for a := range r.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.repo.Create(ctx, a); err != nil {
			r.log.Error("failed to persist activity", zap.Error(err))
		} else {
			r.metrics.ActivityEntriesTotal.Inc()
		}
		cancel()
	}
}
