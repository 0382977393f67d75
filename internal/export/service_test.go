package export

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/retail-pos/internal/bill"
	"github.com/noah-isme/retail-pos/internal/cache"
	"github.com/noah-isme/retail-pos/internal/cart"
	"github.com/noah-isme/retail-pos/internal/common"
	"github.com/noah-isme/retail-pos/internal/inventory"
	"github.com/noah-isme/retail-pos/internal/lock"
)

type capturedTask struct {
	task *asynq.Task
	opts []asynq.Option
}

type fakeEnqueuer struct {
	tasks []capturedTask
	fail  error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.tasks = append(f.tasks, capturedTask{task: task, opts: opts})
	return &asynq.TaskInfo{}, nil
}

type fixture struct {
	svc      *Service
	sessions cart.Store
	enqueuer *fakeEnqueuer
	locker   lock.Locker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := cart.Store{R: client, TTL: time.Hour}
	enq := &fakeEnqueuer{}
	locker := lock.Locker{R: client}

	svc, err := NewService(ServiceConfig{
		Sessions: sessions,
		Locker:   locker,
		Status:   StatusStore{Cache: cache.JSON{Client: client, TTL: time.Hour}},
		Tasks:    enq,
		Layout:   bill.Layout{Rows: 5},
		Dir:      t.TempDir(),
		LockTTL:  time.Minute,
	})
	require.NoError(t, err)
	return &fixture{svc: svc, sessions: sessions, enqueuer: enq, locker: locker}
}

func (f *fixture) seedSession(t *testing.T, id string, items int) {
	t.Helper()
	var state cart.State
	state.SetCustomer(cart.CustomerInfo{CustomerName: "Ramesh", Mobile: "9876543210"})
	for i := 0; i < items; i++ {
		state.Cart.Add(inventory.Product{
			ID:   int64(i + 1),
			Name: "Item",
			Unit: "kg",
		}, i+1, "kg")
	}
	require.NoError(t, f.sessions.Save(context.Background(), id, state))
}

func TestEnqueueRefusesEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.seedSession(t, "s1", 0)

	_, err := f.svc.Enqueue(context.Background(), "s1", FormatPDF)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, common.CodeEmptyCart, appErr.Code)
	require.Equal(t, 422, appErr.HTTPStatus)
	require.Empty(t, f.enqueuer.tasks, "no task may be queued for an empty cart")
}

func TestEnqueueRecordsRequestingOperator(t *testing.T) {
	f := newFixture(t)
	f.seedSession(t, "s1", 2)

	ctx := common.WithUserID(context.Background(), "admin")
	rec, err := f.svc.Enqueue(ctx, "s1", FormatPDF)
	require.NoError(t, err)
	require.Equal(t, "admin", rec.RequestedBy)

	stored, err := f.svc.Status(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, "admin", stored.RequestedBy)
}

func TestEnqueueUnknownSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Enqueue(context.Background(), "ghost", FormatPDF)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, common.CodeNotFound, appErr.Code)
}

func TestEnqueueConflictWhileInFlight(t *testing.T) {
	f := newFixture(t)
	f.seedSession(t, "s1", 3)

	_, err := f.svc.Enqueue(context.Background(), "s1", FormatPDF)
	require.NoError(t, err)

	_, err = f.svc.Enqueue(context.Background(), "s1", FormatXLSX)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, common.CodeConflict, appErr.Code)
	require.Equal(t, 409, appErr.HTTPStatus)
}

func TestEnqueueFailureReleasesLock(t *testing.T) {
	f := newFixture(t)
	f.seedSession(t, "s1", 3)
	f.enqueuer.fail = context.DeadlineExceeded

	_, err := f.svc.Enqueue(context.Background(), "s1", FormatPDF)
	require.Error(t, err)

	f.enqueuer.fail = nil
	_, err = f.svc.Enqueue(context.Background(), "s1", FormatPDF)
	require.NoError(t, err, "a failed enqueue must not leave the session locked")
}

func TestEnqueueAndProcessRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.seedSession(t, "s1", 12)

	rec, err := f.svc.Enqueue(context.Background(), "s1", FormatPDF)
	require.NoError(t, err)
	require.Equal(t, StateQueued, rec.State)
	require.Len(t, f.enqueuer.tasks, 1)

	var payload TaskPayload
	require.NoError(t, json.Unmarshal(f.enqueuer.tasks[0].task.Payload(), &payload))
	require.Equal(t, rec.ID, payload.ExportID)
	require.Equal(t, FormatPDF, payload.Format)
	require.NotEmpty(t, payload.LockToken)

	require.NoError(t, f.svc.Process(context.Background(), payload))

	done, err := f.svc.Status(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, StateDone, done.State)
	// 12 items, 5 rows per column, 10 per page
	require.Equal(t, 2, done.Pages)

	data, err := os.ReadFile(done.File)
	require.NoError(t, err)
	require.True(t, len(data) > 4 && string(data[:4]) == "%PDF")

	// lock released: a fresh export is accepted again
	_, err = f.svc.Enqueue(context.Background(), "s1", FormatXLSX)
	require.NoError(t, err)
}

func TestProcessRecordsRenderFailure(t *testing.T) {
	f := newFixture(t)
	f.seedSession(t, "s1", 3)

	rec, err := f.svc.Enqueue(context.Background(), "s1", FormatPDF)
	require.NoError(t, err)

	var payload TaskPayload
	require.NoError(t, json.Unmarshal(f.enqueuer.tasks[0].task.Payload(), &payload))
	payload.Format = Format("docx")

	require.Error(t, f.svc.Process(context.Background(), payload))

	failed, err := f.svc.Status(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, StateFailed, failed.State)
	require.NotEmpty(t, failed.Error)
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]Format{
		"pdf":  FormatPDF,
		"PDF":  FormatPDF,
		"xlsx": FormatXLSX,
		" XLSX ": FormatXLSX,
	} {
		got, err := ParseFormat(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseFormat("csv")
	require.Error(t, err)
}
