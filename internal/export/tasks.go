package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

const (
	// TypeBillExport is the asynq task type for bill rendering.
	TypeBillExport = "export:bill"
	// QueueExports is processed by a single-concurrency worker, so pages
	// render strictly one bill at a time.
	QueueExports = "exports"
)

// TaskPayload travels from the API process to the worker.
type TaskPayload struct {
	ExportID  string `json:"exportId"`
	SessionID string `json:"sessionId"`
	Format    Format `json:"format"`
	LockToken string `json:"lockToken"`
}

// NewTask packs the payload into an asynq task.
func NewTask(p TaskPayload) (*asynq.Task, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeBillExport, data), nil
}

// Worker adapts Service.Process to the asynq handler interface.
type Worker struct {
	Service *Service
	Logger  zerolog.Logger
}

// ProcessTask renders one queued export. Render failures are recorded on
// the status record and not retried; a half-written bill is worse than a
// failed one the operator can re-request.
func (w *Worker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("export: bad task payload: %v: %w", err, asynq.SkipRetry)
	}

	logger := w.Logger.With().
		Str("export_id", payload.ExportID).
		Str("session_id", payload.SessionID).
		Str("format", string(payload.Format)).
		Logger()

	if err := w.Service.Process(logger.WithContext(ctx), payload); err != nil {
		logger.Error().Err(err).Msg("export failed")
		return fmt.Errorf("export: %v: %w", err, asynq.SkipRetry)
	}
	logger.Info().Msg("export complete")
	return nil
}
