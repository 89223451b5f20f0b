package metrics

import (
	"context"
	"time"

	"fitlife-ai/internal/shared"

	"go.uber.org/zap"
)

// Recorder fans model call outcomes out to the SQLite store and the
// Prometheus collectors. Either may be nil.
type Recorder struct {
	store      *Store
	collectors *Collectors
	logger     *zap.Logger
}

func NewRecorder(store *Store, collectors *Collectors, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, collectors: collectors, logger: logger}
}

func (r *Recorder) PlanGenerated(meta shared.AgentMeta, err error) {
	r.observe(meta, err)
}

func (r *Recorder) ChatExchanged(meta shared.AgentMeta, err error) {
	r.observe(meta, err)
}

func (r *Recorder) observe(meta shared.AgentMeta, err error) {
	if r.collectors != nil {
		r.collectors.ObserveCall(meta, err)
	}
	if r.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := r.store.RecordMeta(ctx, meta, err == nil); serr != nil {
		r.logger.Warn("failed to record metrics",
			zap.String("agent", meta.AgentName),
			zap.Error(serr),
		)
	}
}
