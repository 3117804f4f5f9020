package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Config defaults
// ---------------------------------------------------------------------------

func TestConfig_Defaults(t *testing.T) {
	tp := NewProvider(Config{})
	defer tp.Shutdown(context.Background())

	if tp.cfg.ServiceName != "twin-sim" {
		t.Fatalf("expected default ServiceName='twin-sim', got %q", tp.cfg.ServiceName)
	}
	if tp.cfg.ServiceVersion != "0.0.0" {
		t.Fatalf("expected default ServiceVersion='0.0.0', got %q", tp.cfg.ServiceVersion)
	}
	if tp.cfg.Environment != "development" {
		t.Fatalf("expected default Environment='development', got %q", tp.cfg.Environment)
	}
	if !tp.cfg.metricsOn() {
		t.Fatal("expected MetricsEnabled=true by default")
	}
	if !tp.cfg.tracingOn() {
		t.Fatal("expected TracingEnabled=true by default")
	}
}

func TestConfig_CustomValues(t *testing.T) {
	tp := NewProvider(Config{
		ServiceName:    "my-sim",
		ServiceVersion: "1.2.3",
		Environment:    "production",
		MetricsEnabled: BoolPtr(true),
		TracingEnabled: BoolPtr(true),
	})
	defer tp.Shutdown(context.Background())

	if tp.cfg.ServiceName != "my-sim" {
		t.Fatalf("expected ServiceName='my-sim', got %q", tp.cfg.ServiceName)
	}
	if tp.cfg.ServiceVersion != "1.2.3" {
		t.Fatalf("expected ServiceVersion='1.2.3', got %q", tp.cfg.ServiceVersion)
	}
	if tp.cfg.Environment != "production" {
		t.Fatalf("expected Environment='production', got %q", tp.cfg.Environment)
	}
}

// ---------------------------------------------------------------------------
// Shutdown
// ---------------------------------------------------------------------------

func TestShutdown_Clean(t *testing.T) {
	tp := NewProvider(Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("expected clean shutdown, got error: %v", err)
	}

	// Calling shutdown again should not panic.
	if err := tp.Shutdown(ctx); err != nil {
		t.Fatalf("second shutdown should not error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Noop behavior when disabled
// ---------------------------------------------------------------------------

func TestNoop_WhenDisabled(t *testing.T) {
	tp := NewProvider(Config{
		MetricsEnabled: BoolPtr(false),
		TracingEnabled: BoolPtr(false),
	})
	defer tp.Shutdown(context.Background())

	start := time.Now()
	tp.RecordStage("cascade", start, start.Add(time.Millisecond), nil, nil)
	tp.StageCounter("cascade", "ok")
	tp.ObserveStageDuration("cascade", time.Millisecond)

	if spans := tp.GetRecordedSpans(); len(spans) != 0 {
		t.Fatalf("expected 0 spans when tracing disabled, got %d", len(spans))
	}
	if got := tp.GetStageCounter("cascade", "ok"); got != 0 {
		t.Fatalf("expected counter 0 when metrics disabled, got %d", got)
	}
	if got := tp.StageDurationCount("cascade"); got != 0 {
		t.Fatalf("expected 0 duration observations when metrics disabled, got %d", got)
	}
}

// ---------------------------------------------------------------------------
// Stage spans
// ---------------------------------------------------------------------------

func TestRecordStage_CreatesSpan(t *testing.T) {
	tp := NewProvider(Config{})
	defer tp.Shutdown(context.Background())

	start := time.Now()
	end := start.Add(5 * time.Millisecond)
	tp.RecordStage("cascade", start, end, nil, map[string]string{"origin": "amygdala"})

	spans := tp.GetRecordedSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	span := spans[0]
	if span.Name != "cascade" {
		t.Fatalf("expected span name 'cascade', got %q", span.Name)
	}
	if span.StatusCode != SpanStatusOK {
		t.Fatalf("expected status OK, got %d", span.StatusCode)
	}
	if span.Duration != 5*time.Millisecond {
		t.Fatalf("expected duration 5ms, got %v", span.Duration)
	}
	if span.Attributes["origin"] != "amygdala" {
		t.Fatalf("expected origin attribute, got %v", span.Attributes)
	}
	if span.TraceID == "" || span.SpanID == "" {
		t.Fatal("expected non-empty trace and span IDs")
	}
}

func TestRecordStage_ErrorStatus(t *testing.T) {
	tp := NewProvider(Config{})
	defer tp.Shutdown(context.Background())

	start := time.Now()
	tp.RecordStage("effects", start, start.Add(time.Millisecond), errors.New("boom"), nil)

	spans := tp.GetRecordedSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].StatusCode != SpanStatusError {
		t.Fatalf("expected status Error, got %d", spans[0].StatusCode)
	}
	if spans[0].Attributes["error.message"] != "boom" {
		t.Fatalf("expected error.message attribute, got %v", spans[0].Attributes)
	}
}

// ---------------------------------------------------------------------------
// Stage counters and durations
// ---------------------------------------------------------------------------

func TestStageCounter_Increments(t *testing.T) {
	tp := NewProvider(Config{})
	defer tp.Shutdown(context.Background())

	tp.StageCounter("prediction", "ok")
	tp.StageCounter("prediction", "ok")
	tp.StageCounter("prediction", "error")

	if got := tp.GetStageCounter("prediction", "ok"); got != 2 {
		t.Fatalf("expected ok counter 2, got %d", got)
	}
	if got := tp.GetStageCounter("prediction", "error"); got != 1 {
		t.Fatalf("expected error counter 1, got %d", got)
	}
	if got := tp.GetStageCounter("cascade", "ok"); got != 0 {
		t.Fatalf("expected untouched counter 0, got %d", got)
	}

	snap := tp.CounterSnapshot()
	if snap["sim.stage.count|prediction|ok"] != 2 {
		t.Fatalf("expected snapshot entry 2, got %v", snap)
	}
}

func TestObserveStageDuration_Counts(t *testing.T) {
	tp := NewProvider(Config{})
	defer tp.Shutdown(context.Background())

	tp.ObserveStageDuration("cascade", 2*time.Millisecond)
	tp.ObserveStageDuration("cascade", 20*time.Millisecond)

	if got := tp.StageDurationCount("cascade"); got != 2 {
		t.Fatalf("expected 2 observations, got %d", got)
	}
	if got := tp.StageDurationCount("effects"); got != 0 {
		t.Fatalf("expected 0 observations for untouched stage, got %d", got)
	}
}

func TestActiveScenarios_Gauge(t *testing.T) {
	tp := NewProvider(Config{})
	defer tp.Shutdown(context.Background())

	tp.AddActiveScenarios(1)
	tp.AddActiveScenarios(1)
	if got := tp.ActiveScenarios(); got != 2 {
		t.Fatalf("expected gauge 2, got %d", got)
	}
	tp.AddActiveScenarios(-1)
	if got := tp.ActiveScenarios(); got != 1 {
		t.Fatalf("expected gauge 1 after decrement, got %d", got)
	}
}

// ---------------------------------------------------------------------------
// Histogram buckets
// ---------------------------------------------------------------------------

func TestHistogramBuckets(t *testing.T) {
	expectedBuckets := []float64{
		0.0001, 0.0005, 0.001, 0.005, 0.010, 0.050, 0.100, 0.500, 1.0,
	}

	h := newHistogram(expectedBuckets)

	if len(h.boundaries) != len(expectedBuckets) {
		t.Fatalf("expected %d bucket boundaries, got %d", len(expectedBuckets), len(h.boundaries))
	}
	for i, b := range expectedBuckets {
		if h.boundaries[i] != b {
			t.Fatalf("expected bucket[%d]=%f, got %f", i, b, h.boundaries[i])
		}
	}
}

func TestHistogramBuckets_Observation(t *testing.T) {
	buckets := []float64{0.001, 0.005, 0.010, 0.050}
	h := newHistogram(buckets)

	// 0.5ms -> first bucket (le=0.001)
	h.Observe(0.0005)
	// 3ms -> second bucket (le=0.005)
	h.Observe(0.003)
	// 2s -> exceeds all boundaries, counted only in Count
	h.Observe(2.0)

	if h.Count() != 3 {
		t.Fatalf("expected count=3, got %d", h.Count())
	}
	if h.bucketCounts[0] != 1 {
		t.Fatalf("expected bucket[0.001]=1, got %d", h.bucketCounts[0])
	}
	if h.bucketCounts[1] != 1 {
		t.Fatalf("expected bucket[0.005]=1, got %d", h.bucketCounts[1])
	}

	cum := h.CumulativeBuckets()
	if cum[len(cum)-1] != 2 {
		t.Fatalf("expected cumulative tail 2 (the 2s outlier is implicit), got %d", cum[len(cum)-1])
	}
	if h.Sum() != 0.0005+0.003+2.0 {
		t.Fatalf("unexpected sum %f", h.Sum())
	}
}

// ---------------------------------------------------------------------------
// Concurrency
// ---------------------------------------------------------------------------

func TestMetrics_ConcurrentSafe(t *testing.T) {
	tp := NewProvider(Config{
		MetricsEnabled: BoolPtr(true),
		TracingEnabled: BoolPtr(true),
	})
	defer tp.Shutdown(context.Background())

	var wg sync.WaitGroup
	goroutines := 50
	stagesPerGoroutine := 20

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < stagesPerGoroutine; i++ {
				start := time.Now()
				stage := "cascade"
				if i%2 == 0 {
					stage = "prediction"
				}
				tp.RecordStage(stage, start, start.Add(time.Millisecond), nil, map[string]string{
					"worker": fmt.Sprintf("%d", id),
				})
				tp.StageCounter(stage, "ok")
				tp.ObserveStageDuration(stage, time.Millisecond)
				tp.AddActiveScenarios(1)
				tp.AddActiveScenarios(-1)
			}
		}(g)
	}

	// Concurrently read while writing.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			tp.GetStageCounter("cascade", "ok")
			tp.ActiveScenarios()
			tp.GetRecordedSpans()
			time.Sleep(time.Millisecond)
		}
	}()

	wg.Wait()

	totalExpected := int64(goroutines * stagesPerGoroutine)
	got := tp.GetStageCounter("cascade", "ok") + tp.GetStageCounter("prediction", "ok")
	if got != totalExpected {
		t.Fatalf("expected %d counted stages, got %d", totalExpected, got)
	}
	if spans := tp.GetRecordedSpans(); int64(len(spans)) != totalExpected {
		t.Fatalf("expected %d spans, got %d", totalExpected, len(spans))
	}
	if tp.ActiveScenarios() != 0 {
		t.Fatalf("expected gauge back at 0, got %d", tp.ActiveScenarios())
	}
}

// ---------------------------------------------------------------------------
// Span serialization and resource
// ---------------------------------------------------------------------------

func TestSpan_JSONSerialization(t *testing.T) {
	span := &Span{
		TraceID:    "abc123",
		SpanID:     "def456",
		Name:       "cascade",
		StatusCode: SpanStatusOK,
		Attributes: map[string]string{"origin": "amygdala"},
	}

	out := span.JSON()
	if !strings.Contains(out, `"trace_id":"abc123"`) {
		t.Fatalf("expected trace_id in JSON, got %s", out)
	}
	if !strings.Contains(out, `"name":"cascade"`) {
		t.Fatalf("expected name in JSON, got %s", out)
	}
	if !strings.Contains(out, `"origin":"amygdala"`) {
		t.Fatalf("expected attributes in JSON, got %s", out)
	}
}

func TestProvider_Resource(t *testing.T) {
	tp := NewProvider(Config{
		ServiceName:    "twin-sim",
		ServiceVersion: "2.0.0",
		Environment:    "production",
	})
	defer tp.Shutdown(context.Background())

	res := tp.Resource()
	if res["service.name"] != "twin-sim" {
		t.Fatalf("expected service.name, got %v", res)
	}
	if res["service.version"] != "2.0.0" {
		t.Fatalf("expected service.version, got %v", res)
	}
	if res["deployment.environment"] != "production" {
		t.Fatalf("expected deployment.environment, got %v", res)
	}
}
