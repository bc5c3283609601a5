package performance

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"
)

// Profiler records timings and output sizes of chunk builds, renders and
// uploads, keyed by operation name. A nil or disabled Profiler records
// nothing.
type Profiler struct {
	mu        sync.Mutex
	metrics   map[string]*Metric
	enabled   bool
	startTime time.Time
}

// Metric aggregates one operation.
type Metric struct {
	Name      string        `json:"name"`
	Count     int64         `json:"count"`
	Bytes     int64         `json:"bytes"`
	TotalTime time.Duration `json:"total_time_ns"`
	MinTime   time.Duration `json:"min_time_ns"`
	MaxTime   time.Duration `json:"max_time_ns"`
	LastCall  time.Time     `json:"last_call"`
}

// Operation is a single timed call returned by Start.
type Operation struct {
	profiler *Profiler
	name     string
	start    time.Time
}

// NewProfiler creates a new performance profiler
func NewProfiler(enabled bool) *Profiler {
	return &Profiler{
		metrics:   make(map[string]*Metric),
		enabled:   enabled,
		startTime: time.Now(),
	}
}

// Start begins timing an operation. It returns nil when profiling is off;
// calling Done on a nil Operation is a no-op.
func (p *Profiler) Start(name string) *Operation {
	if p == nil || !p.IsEnabled() {
		return nil
	}
	return &Operation{profiler: p, name: name, start: time.Now()}
}

// Done records the elapsed time and the number of bytes produced.
func (o *Operation) Done(bytes int) {
	if o == nil {
		return
	}
	o.profiler.Record(o.name, time.Since(o.start), bytes)
}

// Record adds one observation.
func (p *Profiler) Record(name string, d time.Duration, bytes int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}

	m, ok := p.metrics[name]
	if !ok {
		m = &Metric{Name: name, MinTime: d, MaxTime: d}
		p.metrics[name] = m
	}
	m.Count++
	m.Bytes += int64(bytes)
	m.TotalTime += d
	m.LastCall = time.Now()
	m.MinTime = min(m.MinTime, d)
	m.MaxTime = max(m.MaxTime, d)
}

// AverageTime returns the mean duration of the metric.
func (m Metric) AverageTime() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.TotalTime / time.Duration(m.Count)
}

// GetMetric returns a copy of the named metric.
func (p *Profiler) GetMetric(name string) (Metric, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.metrics[name]
	if !ok {
		return Metric{}, false
	}
	return *m, true
}

// GetMetrics returns copies of all metrics sorted by name.
func (p *Profiler) GetMetrics() []Metric {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Metric, 0, len(p.metrics))
	for _, m := range p.metrics {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Reset clears all metrics
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = make(map[string]*Metric)
	p.startTime = time.Now()
}

// IsEnabled returns whether profiling is enabled
func (p *Profiler) IsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// SetEnabled turns recording on or off.
func (p *Profiler) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// Report is the JSON form served by the metrics endpoint.
type Report struct {
	StartTime time.Time     `json:"start_time"`
	Runtime   time.Duration `json:"runtime_ns"`
	Enabled   bool          `json:"enabled"`
	Metrics   []Metric      `json:"metrics"`
}

// JSONReport generates a JSON performance report
func (p *Profiler) JSONReport() ([]byte, error) {
	metrics := p.GetMetrics()
	p.mu.Lock()
	report := Report{
		StartTime: p.startTime,
		Runtime:   time.Since(p.startTime),
		Enabled:   p.enabled,
		Metrics:   metrics,
	}
	p.mu.Unlock()
	return json.MarshalIndent(report, "", "  ")
}

// LogReport logs one line per metric
func (p *Profiler) LogReport() {
	for _, m := range p.GetMetrics() {
		log.Printf("perf %-24s count=%d avg=%s max=%s bytes=%d",
			m.Name, m.Count, m.AverageTime(), m.MaxTime, m.Bytes)
	}
}
