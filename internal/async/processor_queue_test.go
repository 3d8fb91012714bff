package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-analyzer/constants"
	"github.com/joseph-ayodele/document-analyzer/internal/analysis"
	"github.com/joseph-ayodele/document-analyzer/internal/common"
)

type fakeAnalyzer struct {
	mu      sync.Mutex
	calls   map[string]analysis.Options
	fail    map[string]error
	started chan string
	release chan struct{}
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{calls: map[string]analysis.Options{}, fail: map[string]error{}}
}

func (f *fakeAnalyzer) AnalyzeAndStore(ctx context.Context, ref, _ string, opts analysis.Options, _ constants.Category) (analysis.StoredRecord, analysis.Record, error) {
	if f.started != nil {
		f.started <- ref
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[ref] = opts
	if err := f.fail[ref]; err != nil {
		return analysis.StoredRecord{}, analysis.Record{}, err
	}
	return analysis.StoredRecord{ID: "rec-" + ref, CreatedAt: time.Now()}, analysis.Record{}, nil
}

type statusLog struct {
	mu      sync.Mutex
	history map[uuid.UUID][]constants.DocumentStatus
	msgs    map[uuid.UUID]string
}

func newStatusLog() *statusLog {
	return &statusLog{history: map[uuid.UUID][]constants.DocumentStatus{}, msgs: map[uuid.UUID]string{}}
}

func (s *statusLog) SetStatus(_ context.Context, id uuid.UUID, st constants.DocumentStatus, msg *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[id] = append(s.history[id], st)
	if msg != nil {
		s.msgs[id] = *msg
	}
	return nil
}

func (s *statusLog) of(id uuid.UUID) []constants.DocumentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]constants.DocumentStatus(nil), s.history[id]...)
}

func job(id uuid.UUID) Job {
	return Job{DocumentID: id, OwnerID: "owner", Category: constants.Legal, Options: analysis.AllOptions()}
}

func TestProcessorQueue_ProcessesAndDrains(t *testing.T) {
	an := newFakeAnalyzer()
	st := newStatusLog()
	q := NewProcessorQueue(an, st, nil, WithWorkers(3), WithQueueSize(10))

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		require.NoError(t, q.Enqueue(context.Background(), job(id)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	assert.Len(t, an.calls, len(ids))
	for _, id := range ids {
		assert.Equal(t, []constants.DocumentStatus{
			constants.DocumentStatusQueued,
			constants.DocumentStatusRunning,
			constants.DocumentStatusAnalyzed,
		}, st.of(id))
	}
}

func TestProcessorQueue_FailureMarksDocument(t *testing.T) {
	an := newFakeAnalyzer()
	st := newStatusLog()
	id := uuid.New()
	an.fail[id.String()] = errors.New("sink unavailable")
	q := NewProcessorQueue(an, st, nil, WithWorkers(1))

	require.NoError(t, q.Enqueue(context.Background(), job(id)))
	q.Shutdown(context.Background())

	hist := st.of(id)
	require.NotEmpty(t, hist)
	assert.Equal(t, constants.DocumentStatusFailed, hist[len(hist)-1])
	assert.Equal(t, "sink unavailable", st.msgs[id])
}

func TestProcessorQueue_DuplicateJobKeepsDocumentAnalyzed(t *testing.T) {
	an := newFakeAnalyzer()
	st := newStatusLog()
	id := uuid.New()
	q := NewProcessorQueue(an, st, nil, WithWorkers(1))

	require.NoError(t, q.Enqueue(context.Background(), job(id)))
	require.Eventually(t, func() bool {
		h := st.of(id)
		return len(h) == 3 && h[2] == constants.DocumentStatusAnalyzed
	}, 5*time.Second, 10*time.Millisecond)

	an.mu.Lock()
	an.fail[id.String()] = common.NewAppError(common.CodeConflict, "analysis already stored", common.ErrAlreadyAnalyzed)
	an.mu.Unlock()
	require.NoError(t, q.Enqueue(context.Background(), job(id)))
	q.Shutdown(context.Background())

	assert.Equal(t, []constants.DocumentStatus{
		constants.DocumentStatusQueued,
		constants.DocumentStatusRunning,
		constants.DocumentStatusAnalyzed,
		constants.DocumentStatusQueued,
		constants.DocumentStatusRunning,
		constants.DocumentStatusAnalyzed,
	}, st.of(id))
	assert.Empty(t, st.msgs[id])
}

func TestProcessorQueue_RejectsInvalidJobs(t *testing.T) {
	q := NewProcessorQueue(newFakeAnalyzer(), nil, nil)
	defer q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Category: constants.Legal})
	assert.ErrorIs(t, err, ErrInvalidJob)

	err = q.Enqueue(context.Background(), Job{DocumentID: uuid.New(), Category: "Medical"})
	assert.ErrorIs(t, err, ErrInvalidJob)
}

func TestProcessorQueue_ClosedQueue(t *testing.T) {
	q := NewProcessorQueue(newFakeAnalyzer(), nil, nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), job(uuid.New()))
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestProcessorQueue_BackpressureHonoursContext(t *testing.T) {
	an := newFakeAnalyzer()
	an.started = make(chan string, 1)
	an.release = make(chan struct{})
	st := newStatusLog()
	q := NewProcessorQueue(an, st, nil, WithWorkers(1), WithQueueSize(1))

	require.NoError(t, q.Enqueue(context.Background(), job(uuid.New())))
	<-an.started // the only worker is now busy
	require.NoError(t, q.Enqueue(context.Background(), job(uuid.New())))

	blocked := uuid.New()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, job(blocked))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []constants.DocumentStatus{constants.DocumentStatusQueued, constants.DocumentStatusUploaded}, st.of(blocked))

	go func() {
		for range an.started {
		}
	}()
	close(an.release)
	q.Shutdown(context.Background())
	close(an.started)
	assert.Len(t, an.calls, 2)
}

func TestProcessorQueue_ShutdownReleasesBlockedEnqueue(t *testing.T) {
	an := newFakeAnalyzer()
	an.started = make(chan string, 2)
	an.release = make(chan struct{})
	defer close(an.release)
	st := newStatusLog()
	q := NewProcessorQueue(an, st, nil, WithWorkers(1), WithQueueSize(1))

	require.NoError(t, q.Enqueue(context.Background(), job(uuid.New())))
	<-an.started
	require.NoError(t, q.Enqueue(context.Background(), job(uuid.New())))

	blocked := uuid.New()
	errc := make(chan error, 1)
	go func() { errc <- q.Enqueue(context.Background(), job(blocked)) }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() { defer close(done); q.Shutdown(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not return after its context ended")
	}
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("blocked Enqueue did not return")
	}
	if h := st.of(blocked); len(h) > 0 {
		assert.Equal(t, constants.DocumentStatusUploaded, h[len(h)-1])
	}
}
