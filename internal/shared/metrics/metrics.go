package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	generationStartedTotal   atomic.Uint64
	generationCompletedTotal atomic.Uint64
	validationFailedTotal    atomic.Uint64
	conversionFailedTotal    atomic.Uint64
	renderWarningsTotal      atomic.Uint64
	keywordsInjectedTotal    atomic.Uint64

	generationDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	conversionDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncGenerationStarted counts a generation request entering the pipeline.
func IncGenerationStarted() {
	generationStartedTotal.Add(1)
}

// IncGenerationCompleted counts a generation that produced at least the DOCX.
func IncGenerationCompleted() {
	generationCompletedTotal.Add(1)
}

// IncValidationFailed counts generations rejected for missing required fields.
func IncValidationFailed() {
	validationFailedTotal.Add(1)
}

// IncConversionFailed counts PDF conversions that failed or timed out.
func IncConversionFailed() {
	conversionFailedTotal.Add(1)
}

// AddRenderWarnings counts non-fatal render warnings.
func AddRenderWarnings(n int) {
	if n > 0 {
		renderWarningsTotal.Add(uint64(n))
	}
}

// AddKeywordsInjected counts synthetic keyword statements.
func AddKeywordsInjected(n int) {
	if n > 0 {
		keywordsInjectedTotal.Add(uint64(n))
	}
}

// ObserveGenerationDurationMs records a full pipeline run in milliseconds.
func ObserveGenerationDurationMs(value float64) {
	generationDuration.Observe(clamp(value))
}

// ObserveConversionDurationMs records a converter run in milliseconds.
func ObserveConversionDurationMs(value float64) {
	conversionDuration.Observe(clamp(value))
}

func clamp(value float64) float64 {
	if value < 0 {
		return 0
	}
	return value
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "cv_generation_started_total", "Total CV generations started", generationStartedTotal.Load())
	writeCounter(&buf, "cv_generation_completed_total", "Total CV generations that produced a document", generationCompletedTotal.Load())
	writeCounter(&buf, "cv_validation_failed_total", "Total CV generations rejected by validation", validationFailedTotal.Load())
	writeCounter(&buf, "cv_conversion_failed_total", "Total PDF conversions that failed", conversionFailedTotal.Load())
	writeCounter(&buf, "cv_render_warnings_total", "Total non-fatal render warnings", renderWarningsTotal.Load())
	writeCounter(&buf, "cv_keywords_injected_total", "Total synthetic keyword statements added", keywordsInjectedTotal.Load())
	writeHistogram(&buf, "cv_generation_duration_ms", "CV generation duration in milliseconds", generationDuration.Snapshot())
	writeHistogram(&buf, "cv_conversion_duration_ms", "PDF conversion duration in milliseconds", conversionDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	// each observation lands in its first bucket; writeHistogram accumulates
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
