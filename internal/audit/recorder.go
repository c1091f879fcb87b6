// Package audit writes the admin audit trail. Writes are best effort: a
// failure is logged and counted, never returned to the caller.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Eninte/ai-resource-navigator/infrastructure/logger"
	"github.com/Eninte/ai-resource-navigator/internal/domain"
	"github.com/Eninte/ai-resource-navigator/internal/metrics"
	"github.com/Eninte/ai-resource-navigator/internal/store"
)

// Writer is the slice of store.Store the recorder needs.
type Writer interface {
	InsertAdminLog(ctx context.Context, entry *domain.AdminLog) error
}

var _ Writer = (store.Store)(nil)

type Recorder struct {
	w       Writer
	metrics *metrics.Provider
	now     func() time.Time
}

func NewRecorder(w Writer, m *metrics.Provider) *Recorder {
	return &Recorder{w: w, metrics: m, now: time.Now}
}

// Entry describes one privileged action.
type Entry struct {
	Action     domain.Action
	IPHash     string
	ResourceID string
	Details    any
}

// Record writes e synchronously and reports whether it was stored.
func (r *Recorder) Record(ctx context.Context, e Entry) bool {
	log := logger.FromContext(ctx).With(
		logger.String("action", string(e.Action)),
		logger.String("resource_id", e.ResourceID),
	)

	details := json.RawMessage(`{}`)
	if e.Details != nil {
		b, err := json.Marshal(e.Details)
		if err != nil {
			log.Warn("Audit details not serialisable", logger.Error(err))
		} else {
			details = b
		}
	}

	entry := &domain.AdminLog{
		Action:     e.Action,
		IPHash:     e.IPHash,
		ResourceID: e.ResourceID,
		Details:    details,
		CreatedAt:  r.now().UTC(),
	}
	if err := r.w.InsertAdminLog(ctx, entry); err != nil {
		r.metrics.RecordAuditWriteError()
		log.Error("Failed to write audit log", logger.Error(err))
		return false
	}
	return true
}
