package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestObserveStep(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveStep("summarize", 2*time.Millisecond, nil)
	m.ObserveStep("anomaly", time.Millisecond, errors.New("boom"))
	m.ObserveStep("anomaly", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.StepFailures.WithLabelValues("summarize")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepFailures.WithLabelValues("anomaly")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.StepDuration))
}

func TestRecorders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordAnalysis("Legal")
	m.RecordAcquisitionFailure()
	m.RecordStore("ok")
	m.RecordComparison("High similarity", 91)
	m.RecordIngest("duplicate")
	m.SetQueueDepth(4)
	m.AddActiveWorkers(2)
	m.AddActiveWorkers(-1)
	m.RecordDropped()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsAnalyzed.WithLabelValues("Legal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AcquisitionFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsStored.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Comparisons.WithLabelValues("High similarity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesIngested.WithLabelValues("duplicate")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.QueueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveWorkers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobsDropped))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveStep("extract", time.Millisecond, errors.New("x"))
		m.RecordAnalysis("Financial")
		m.RecordComparison("Low similarity", 3)
		m.SetQueueDepth(1)
	})
}

func TestUnaryServerInterceptor(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	icpt := m.UnaryServerInterceptor(nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/documentanalyzer.v1.DocumentService/GetDocument"}

	resp, err := icpt(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		return "resp", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "resp", resp)

	_, err = icpt(context.Background(), "req", info, func(ctx context.Context, req any) (any, error) {
		return nil, status.Error(codes.NotFound, "missing")
	})
	assert.Equal(t, codes.NotFound, status.Code(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCRequests.WithLabelValues(info.FullMethod, "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCRequests.WithLabelValues(info.FullMethod, "NotFound")))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.RecordAnalysis("Financial")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `docanalyzer_documents_analyzed_total{category="Financial"} 1`), body)
}
