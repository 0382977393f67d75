package export

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/noah-isme/retail-pos/internal/bill"
	"github.com/noah-isme/retail-pos/internal/cart"
	"github.com/noah-isme/retail-pos/internal/common"
	"github.com/noah-isme/retail-pos/internal/lock"
	"github.com/noah-isme/retail-pos/internal/obs"
)

const lockKeyPrefix = "pos:export:lock:"

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Service owns the export pipeline on both sides of the queue: Enqueue
// runs in the API process, Process in the worker.
type Service struct {
	sessions  cart.Store
	locker    lock.Locker
	status    StatusStore
	tasks     enqueuer
	layout    bill.Layout
	dir       string
	lockTTL   time.Duration
	renderers map[Format]Renderer
}

// ServiceConfig wires the export pipeline.
type ServiceConfig struct {
	Sessions cart.Store
	Locker   lock.Locker
	Status   StatusStore
	Tasks    enqueuer
	Layout   bill.Layout
	Dir      string
	LockTTL  time.Duration
	PDF      Renderer
	XLSX     Renderer
}

// NewService constructs a Service. The worker process may leave Tasks nil.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Dir == "" {
		return nil, errors.New("export: output directory is required")
	}
	pdf := cfg.PDF
	if pdf == nil {
		pdf = PDFRenderer{}
	}
	xlsx := cfg.XLSX
	if xlsx == nil {
		xlsx = XLSXRenderer{}
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &Service{
		sessions: cfg.Sessions,
		locker:   cfg.Locker,
		status:   cfg.Status,
		tasks:    cfg.Tasks,
		layout:   cfg.Layout,
		dir:      cfg.Dir,
		lockTTL:  ttl,
		renderers: map[Format]Renderer{
			FormatPDF:  pdf,
			FormatXLSX: xlsx,
		},
	}, nil
}

// Enqueue validates the session and queues a render. An empty cart is
// refused before any sink work, and a session with an export already in
// flight gets a conflict.
func (s *Service) Enqueue(ctx context.Context, sessionID string, format Format) (Record, error) {
	if s.tasks == nil {
		return Record{}, errors.New("export: task client not configured")
	}
	state, found, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return Record{}, fmt.Errorf("export: load session: %w", err)
	}
	if !found {
		return Record{}, common.NotFoundError("session not found")
	}
	if state.Cart.Len() == 0 {
		return Record{}, common.NewAppError(common.CodeEmptyCart, "cannot export an empty bill", http.StatusUnprocessableEntity, nil)
	}

	token, err := s.locker.Acquire(ctx, lockKeyPrefix+sessionID, s.lockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrHeld) {
			return Record{}, common.NewAppError(common.CodeConflict, "an export for this session is already in progress", http.StatusConflict, nil)
		}
		return Record{}, fmt.Errorf("export: acquire lock: %w", err)
	}

	requestedBy, _ := common.UserIDFromContext(ctx)
	rec := Record{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Format:      format,
		State:       StateQueued,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.status.Put(ctx, rec); err != nil {
		s.releaseLock(sessionID, token)
		return Record{}, fmt.Errorf("export: record status: %w", err)
	}

	task, err := NewTask(TaskPayload{
		ExportID:  rec.ID,
		SessionID: sessionID,
		Format:    format,
		LockToken: token,
	})
	if err != nil {
		s.releaseLock(sessionID, token)
		return Record{}, err
	}
	if _, err := s.tasks.EnqueueContext(ctx, task, asynq.Queue(QueueExports)); err != nil {
		s.releaseLock(sessionID, token)
		rec.State = StateFailed
		rec.Error = "enqueue failed"
		_ = s.status.Put(ctx, rec)
		return Record{}, fmt.Errorf("export: enqueue: %w", err)
	}
	return rec, nil
}

// Status returns the record for exportID.
func (s *Service) Status(ctx context.Context, exportID string) (Record, error) {
	rec, found, err := s.status.Get(ctx, exportID)
	if err != nil {
		return Record{}, fmt.Errorf("export: load status: %w", err)
	}
	if !found {
		return Record{}, common.NotFoundError("export not found")
	}
	return rec, nil
}

// Process renders a queued export to disk. It always releases the session
// lock, success or not.
func (s *Service) Process(ctx context.Context, payload TaskPayload) error {
	defer s.releaseLock(payload.SessionID, payload.LockToken)

	rec, found, err := s.status.Get(ctx, payload.ExportID)
	if err != nil || !found {
		rec = Record{
			ID:        payload.ExportID,
			SessionID: payload.SessionID,
			Format:    payload.Format,
			CreatedAt: time.Now().UTC(),
		}
	}
	rec.State = StateRunning
	_ = s.status.Put(ctx, rec)

	file, pages, err := s.render(ctx, payload)
	if err != nil {
		recordExport(payload.Format, "error")
		rec.State = StateFailed
		rec.Error = err.Error()
		_ = s.status.Put(ctx, rec)
		return err
	}

	recordExport(payload.Format, "ok")
	rec.State = StateDone
	rec.File = file
	rec.Pages = pages
	rec.Error = ""
	return s.status.Put(ctx, rec)
}

func (s *Service) render(ctx context.Context, payload TaskPayload) (string, int, error) {
	renderer, ok := s.renderers[payload.Format]
	if !ok {
		return "", 0, fmt.Errorf("export: unknown format %q", payload.Format)
	}

	state, found, err := s.sessions.Load(ctx, payload.SessionID)
	if err != nil {
		return "", 0, fmt.Errorf("export: load session: %w", err)
	}
	if !found {
		return "", 0, errors.New("export: session vanished before rendering")
	}
	lines := state.Cart.Lines()
	if len(lines) == 0 {
		return "", 0, errors.New("export: cart emptied before rendering")
	}

	pages := bill.Paginate(lines, s.layout)
	header := Header{
		CustomerName:      state.CustomerName,
		CustomerNameLocal: state.CustomerNameLocal,
		Mobile:            state.Mobile,
		DeliveryDate:      state.DeliveryDate,
		DeliveryTime:      state.DeliveryTime,
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", 0, err
	}
	path := filepath.Join(s.dir, payload.ExportID+payload.Format.Ext())
	f, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}

	started := time.Now()
	renderErr := renderer.Render(f, header, pages)
	closeErr := f.Close()
	if renderErr != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("export: render: %w", renderErr)
	}
	if closeErr != nil {
		_ = os.Remove(path)
		return "", 0, closeErr
	}

	if obs.ExportPagesRendered != nil {
		obs.ExportPagesRendered.Observe(float64(len(pages)))
	}
	if obs.ExportRenderLatency != nil {
		obs.ExportRenderLatency.WithLabelValues(string(payload.Format)).Observe(obs.DurationMillis(time.Since(started)))
	}
	return path, len(pages), nil
}

func (s *Service) releaseLock(sessionID, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.locker.Release(ctx, lockKeyPrefix+sessionID, token)
}

func recordExport(format Format, result string) {
	if obs.ExportsTotal != nil {
		obs.ExportsTotal.WithLabelValues(string(format), result).Inc()
	}
}
