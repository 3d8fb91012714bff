// Package telemetry exports Prometheus metrics for the analyzer.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "docanalyzer"

// Metrics holds all analyzer Prometheus metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Analysis
	DocumentsAnalyzed   *prometheus.CounterVec
	StepDuration        *prometheus.HistogramVec
	StepFailures        *prometheus.CounterVec
	AcquisitionFailures prometheus.Counter
	RecordsStored       *prometheus.CounterVec

	// Comparison
	Comparisons     *prometheus.CounterVec
	SimilarityScore prometheus.Histogram

	// Ingest
	FilesIngested *prometheus.CounterVec

	// Queue
	QueueDepth    prometheus.Gauge
	ActiveWorkers prometheus.Gauge
	JobsDropped   prometheus.Counter

	// RPC
	RPCRequests *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec
}

// NewMetrics registers every metric with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{}

	m.DocumentsAnalyzed = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_analyzed_total",
		Help:      "Total analyses run, by document category",
	}, []string{"category"})
	m.StepDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "step_duration_seconds",
		Help:      "Time spent in one analysis step",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"step"})
	m.StepFailures = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "step_failures_total",
		Help:      "Analysis steps that failed",
	}, []string{"step"})
	m.AcquisitionFailures = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "acquisition_failures_total",
		Help:      "Analyses whose document text could not be obtained",
	})
	m.RecordsStored = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_stored_total",
		Help:      "Record sink outcomes",
	}, []string{"result"})

	m.Comparisons = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "comparisons_total",
		Help:      "Document comparisons, by verdict",
	}, []string{"verdict"})
	m.SimilarityScore = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "similarity_score",
		Help:      "Similarity scores of compared documents",
		Buckets:   prometheus.LinearBuckets(10, 10, 10),
	})

	m.FilesIngested = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "files_ingested_total",
		Help:      "Ingested files, by result",
	}, []string{"result"})

	m.QueueDepth = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Analysis jobs waiting for a worker",
	})
	m.ActiveWorkers = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_workers",
		Help:      "Workers currently running a job",
	})
	m.JobsDropped = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_dropped_total",
		Help:      "Jobs rejected because the queue was full or closed",
	})

	m.RPCRequests = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "gRPC requests, by method and status code",
	}, []string{"method", "code"})
	m.RPCDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "gRPC handler latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	return m
}

// ObserveStep records one analysis step. It has the shape of
// analysis.StepObserver.
func (m *Metrics) ObserveStep(step string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.StepDuration.WithLabelValues(step).Observe(elapsed.Seconds())
	if err != nil {
		m.StepFailures.WithLabelValues(step).Inc()
	}
}

func (m *Metrics) RecordAnalysis(category string) {
	if m == nil {
		return
	}
	m.DocumentsAnalyzed.WithLabelValues(category).Inc()
}

func (m *Metrics) RecordAcquisitionFailure() {
	if m == nil {
		return
	}
	m.AcquisitionFailures.Inc()
}

func (m *Metrics) RecordStore(result string) {
	if m == nil {
		return
	}
	m.RecordsStored.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordComparison(verdict string, score float64) {
	if m == nil {
		return
	}
	m.Comparisons.WithLabelValues(verdict).Inc()
	m.SimilarityScore.Observe(score)
}

func (m *Metrics) RecordIngest(result string) {
	if m == nil {
		return
	}
	m.FilesIngested.WithLabelValues(result).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) AddActiveWorkers(delta int) {
	if m == nil {
		return
	}
	m.ActiveWorkers.Add(float64(delta))
}

func (m *Metrics) RecordDropped() {
	if m == nil {
		return
	}
	m.JobsDropped.Inc()
}

// UnaryServerInterceptor logs every call and records its latency and status
// code.
func (m *Metrics) UnaryServerInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)
		code := status.Code(err)

		if m != nil {
			m.RPCRequests.WithLabelValues(info.FullMethod, code.String()).Inc()
			m.RPCDuration.WithLabelValues(info.FullMethod).Observe(elapsed.Seconds())
		}
		if err != nil {
			logger.Warn("rpc failed", "method", info.FullMethod, "code", code.String(), "elapsed", elapsed, "error", err)
		} else {
			logger.Info("rpc ok", "method", info.FullMethod, "elapsed", elapsed)
		}
		return resp, err
	}
}

// Handler serves the /metrics endpoint for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve runs a metrics HTTP server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
