package api

import (
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"stb/internal/version"
)

// MetricsCollector tracks request and analysis metrics and renders
// them in Prometheus text format.
type MetricsCollector struct {
	// Counters
	requestsTotal  *Counter // labels: path, status
	parseTotal     *Counter // labels: outcome (analyzed|cached|rejected)
	analysesStored *Counter

	// Histograms
	parseDuration *Histogram

	// Gauges
	goroutines  *Gauge
	memoryAlloc *Gauge

	startTime time.Time
}

// Counter is a monotonically increasing counter
type Counter struct {
	name   string
	help   string
	labels []string
	values sync.Map // map[string]*uint64
}

// Histogram tracks distributions of values
type Histogram struct {
	name    string
	help    string
	labels  []string
	buckets []float64
	values  sync.Map // map[string]*histogramValue
}

type histogramValue struct {
	mu      sync.Mutex
	sum     float64
	count   uint64
	buckets []uint64
}

// Gauge is a metric that can go up and down
type Gauge struct {
	name   string
	help   string
	labels []string
	values sync.Map // map[string]*float64
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		startTime: time.Now(),
		requestsTotal: &Counter{
			name:   "stb_http_requests_total",
			help:   "Total number of HTTP requests",
			labels: []string{"path", "status"},
		},
		parseTotal: &Counter{
			name:   "stb_parse_total",
			help:   "Total number of parse operations",
			labels: []string{"outcome"},
		},
		analysesStored: &Counter{
			name: "stb_analyses_stored_total",
			help: "Total number of analyses written to history",
		},
		parseDuration: &Histogram{
			name:    "stb_parse_duration_seconds",
			help:    "Duration of parse operations in seconds",
			buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		goroutines: &Gauge{
			name: "stb_goroutines",
			help: "Number of goroutines",
		},
		memoryAlloc: &Gauge{
			name: "stb_memory_alloc_bytes",
			help: "Allocated memory in bytes",
		},
	}
}

// RecordRequest records a completed HTTP request
func (m *MetricsCollector) RecordRequest(path string, status int) {
	m.requestsTotal.Inc(path, strconv.Itoa(status))
}

// RecordParse records a parse operation and its outcome
func (m *MetricsCollector) RecordParse(outcome string, duration time.Duration) {
	m.parseTotal.Inc(outcome)
	m.parseDuration.Observe(duration.Seconds())
}

// RecordStored records an analysis written to history
func (m *MetricsCollector) RecordStored() {
	m.analysesStored.Inc()
}

// WritePrometheus writes metrics in Prometheus text format
func (m *MetricsCollector) WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	// Update runtime metrics
	m.goroutines.Set(float64(runtime.NumGoroutine()))
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	m.memoryAlloc.Set(float64(memStats.Alloc))

	// Write build info
	fmt.Fprintf(w, "# HELP stb_info STB build information\n")
	fmt.Fprintf(w, "# TYPE stb_info gauge\n")
	fmt.Fprintf(w, "stb_info{version=\"%s\"} 1\n\n", version.Version)

	// Write uptime
	fmt.Fprintf(w, "# HELP stb_uptime_seconds Time since STB started\n")
	fmt.Fprintf(w, "# TYPE stb_uptime_seconds counter\n")
	fmt.Fprintf(w, "stb_uptime_seconds %.3f\n\n", time.Since(m.startTime).Seconds())

	// Write counters
	m.writeCounter(w, m.requestsTotal)
	m.writeCounter(w, m.parseTotal)
	m.writeCounter(w, m.analysesStored)

	// Write histograms
	m.writeHistogram(w, m.parseDuration)

	// Write gauges
	m.writeGauge(w, m.goroutines)
	m.writeGauge(w, m.memoryAlloc)
}

func (m *MetricsCollector) writeCounter(w http.ResponseWriter, c *Counter) {
	fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help)
	fmt.Fprintf(w, "# TYPE %s counter\n", c.name)

	for _, key := range sortedMetricKeys(&c.values) {
		val, _ := c.values.Load(key)
		if ptr, ok := val.(*uint64); ok {
			fmt.Fprintf(w, "%s%s %d\n", c.name, key, atomic.LoadUint64(ptr))
		}
	}
	fmt.Fprintln(w)
}

func (m *MetricsCollector) writeHistogram(w http.ResponseWriter, h *Histogram) {
	fmt.Fprintf(w, "# HELP %s %s\n", h.name, h.help)
	fmt.Fprintf(w, "# TYPE %s histogram\n", h.name)

	for _, key := range sortedMetricKeys(&h.values) {
		val, _ := h.values.Load(key)
		hv, ok := val.(*histogramValue)
		if !ok {
			continue
		}

		hv.mu.Lock()
		cumulative := uint64(0)
		for i, bound := range h.buckets {
			cumulative += hv.buckets[i]
			fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, bucketKey(key, fmt.Sprintf("%g", bound)), cumulative)
		}
		cumulative += hv.buckets[len(h.buckets)]
		fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, bucketKey(key, "+Inf"), cumulative)
		fmt.Fprintf(w, "%s_sum%s %.6f\n", h.name, key, hv.sum)
		fmt.Fprintf(w, "%s_count%s %d\n", h.name, key, hv.count)
		hv.mu.Unlock()
	}
	fmt.Fprintln(w)
}

func (m *MetricsCollector) writeGauge(w http.ResponseWriter, g *Gauge) {
	fmt.Fprintf(w, "# HELP %s %s\n", g.name, g.help)
	fmt.Fprintf(w, "# TYPE %s gauge\n", g.name)

	for _, key := range sortedMetricKeys(&g.values) {
		val, _ := g.values.Load(key)
		if ptr, ok := val.(*float64); ok {
			fmt.Fprintf(w, "%s%s %.6f\n", g.name, key, *ptr)
		}
	}
	fmt.Fprintln(w)
}

// sortedMetricKeys returns the label keys of a metric in stable order
func sortedMetricKeys(values *sync.Map) []string {
	var keys []string
	values.Range(func(key, value interface{}) bool {
		keys = append(keys, key.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

// bucketKey appends the le label to an existing label key
func bucketKey(key, le string) string {
	if key == "" {
		return fmt.Sprintf("{le=%q}", le)
	}
	return key[:len(key)-1] + fmt.Sprintf(",le=%q}", le)
}

// labelKey renders label values into a stable Prometheus label block.
// Metrics without labels use the empty key.
func labelKey(labels, values []string) string {
	if len(labels) == 0 || len(values) == 0 {
		return ""
	}

	pairs := make([]string, 0, len(labels))
	for i, label := range labels {
		if i < len(values) {
			pairs = append(pairs, fmt.Sprintf("%s=%q", label, values[i]))
		}
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

// Counter methods
func (c *Counter) Inc(labelValues ...string) {
	c.Add(1, labelValues...)
}

func (c *Counter) Add(delta uint64, labelValues ...string) {
	key := labelKey(c.labels, labelValues)
	val, _ := c.values.LoadOrStore(key, new(uint64))
	atomic.AddUint64(val.(*uint64), delta)
}

// Histogram methods
func (h *Histogram) Observe(value float64, labelValues ...string) {
	key := labelKey(h.labels, labelValues)
	val, _ := h.values.LoadOrStore(key, &histogramValue{
		buckets: make([]uint64, len(h.buckets)+1), // +1 for +Inf
	})
	hv := val.(*histogramValue)

	hv.mu.Lock()
	defer hv.mu.Unlock()

	hv.sum += value
	hv.count++

	bucketIdx := len(h.buckets) // Default to +Inf
	for i, bound := range h.buckets {
		if value <= bound {
			bucketIdx = i
			break
		}
	}
	hv.buckets[bucketIdx]++
}

// Gauge methods
func (g *Gauge) Set(value float64, labelValues ...string) {
	key := labelKey(g.labels, labelValues)
	ptr := new(float64)
	*ptr = value
	g.values.Store(key, ptr)
}

// handleMetrics handles the /metrics endpoint
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.metrics.WritePrometheus(w)
}
