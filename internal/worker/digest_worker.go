package worker

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/deskworks/service-desk/internal/api/dto"
	"github.com/deskworks/service-desk/internal/domain"
	"github.com/deskworks/service-desk/internal/projection"
)

// CalendarDigestKey is the cache key the visit calendar digest is stored under.
const CalendarDigestKey = "visit_calendar"

// CalendarSource builds the visit calendar on behalf of a viewer.
type CalendarSource interface {
	VisitCalendar(ctx context.Context, viewer domain.Viewer) (projection.Calendar, error)
}

// DigestStore persists an encoded digest.
type DigestStore interface {
	Store(ctx context.Context, key string, payload []byte) error
}

// CalendarDigest is the cached document.
type CalendarDigest struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Days        []dto.CalendarDayResponse `json:"days"`
}

// DigestWorker periodically snapshots the visit calendar into the cache.
type DigestWorker struct {
	source   CalendarSource
	store    DigestStore
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time
}

// systemViewer is the identity background jobs read under.
var systemViewer = domain.Viewer{ID: "system", DisplayName: "system", Role: domain.RoleAdmin}

// NewDigestWorker constructs the worker.
func NewDigestWorker(source CalendarSource, store DigestStore, logger *zap.Logger, interval time.Duration) *DigestWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DigestWorker{source: source, store: store, logger: logger, interval: interval, now: time.Now}
}

// Run rebuilds the digest once immediately and then on every tick until ctx
// is cancelled. A zero interval disables the worker.
func (w *DigestWorker) Run(ctx context.Context) {
	if w.interval <= 0 {
		w.logger.Info("calendar digest worker disabled")
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("calendar digest worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *DigestWorker) refresh(ctx context.Context) {
	if err := w.RunOnce(ctx); err != nil {
		w.logger.Warn("calendar digest refresh failed", zap.Error(err))
	}
}

// RunOnce builds and stores one digest.
func (w *DigestWorker) RunOnce(ctx context.Context) error {
	cal, err := w.source.VisitCalendar(ctx, systemViewer)
	if err != nil {
		return err
	}
	digest := CalendarDigest{GeneratedAt: w.now().UTC(), Days: dto.NewCalendarResponse(cal)}
	payload, err := json.Marshal(digest)
	if err != nil {
		return err
	}
	if err := w.store.Store(ctx, CalendarDigestKey, payload); err != nil {
		return err
	}
	w.logger.Debug("calendar digest refreshed", zap.Int("days", len(digest.Days)))
	return nil
}
