package stats

import (
	"sync"
	"time"

	"github.com/pagopa/opex-dashboard/internal/models"
)

// Collector accumulates counters for a single build run
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	template  string
	endpoints int
	hosts     int
	queries   int64
	alerts    int64
	parts     int64
	stages    map[string]*models.AtomicStageStat
	order     []string // stage names in first-seen order
	files     []models.FileStat
}

// NewCollector creates a new statistics collector
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		stages:    make(map[string]*models.AtomicStageStat),
		files:     make([]models.FileStat, 0),
	}
}

// SetTemplate records which renderer produced the run
func (c *Collector) SetTemplate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.template = name
}

// SetScope records the size of the monitored surface
func (c *Collector) SetScope(hosts, endpoints int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hosts = hosts
	c.endpoints = endpoints
}

// RecordStage records the duration of a pipeline stage
func (c *Collector) RecordStage(name string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stage, ok := c.stages[name]
	if !ok {
		stage = &models.AtomicStageStat{Name: name}
		c.stages[name] = stage
		c.order = append(c.order, name)
	}
	stage.Runs.Add(1)
	stage.TotalTimeNs.Add(duration.Nanoseconds())
}

// Track returns a func that records the elapsed time of name when called
func (c *Collector) Track(name string) func() {
	start := time.Now()
	return func() {
		c.RecordStage(name, time.Since(start))
	}
}

// RecordQuery counts one generated Kusto query
func (c *Collector) RecordQuery() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries++
}

// RecordAlert counts one rendered alert rule
func (c *Collector) RecordAlert() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts++
}

// RecordParts counts rendered dashboard parts
func (c *Collector) RecordParts(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parts += int64(n)
}

// RecordFile records a written artifact
func (c *Collector) RecordFile(path string, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = append(c.files, models.FileStat{Path: path, Bytes: int64(size)})
}

// Summary returns a snapshot of the collected statistics
func (c *Collector) Summary() *models.BuildStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stages := make([]models.StageStat, 0, len(c.order))
	for _, name := range c.order {
		stages = append(stages, c.stages[name].ToStageStat())
	}

	files := make([]models.FileStat, len(c.files))
	copy(files, c.files)

	var total int64
	for _, f := range files {
		total += f.Bytes
	}

	return &models.BuildStats{
		Template:   c.template,
		Endpoints:  c.endpoints,
		Hosts:      c.hosts,
		Queries:    c.queries,
		Alerts:     c.alerts,
		Parts:      c.parts,
		Files:      files,
		Stages:     stages,
		StartTime:  c.startTime,
		Duration:   formatDuration(time.Since(c.startTime)),
		TotalBytes: total,
	}
}

// Reset resets all statistics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = time.Now()
	c.template = ""
	c.endpoints = 0
	c.hosts = 0
	c.queries = 0
	c.alerts = 0
	c.parts = 0
	c.stages = make(map[string]*models.AtomicStageStat)
	c.order = nil
	c.files = make([]models.FileStat, 0)
}

// formatDuration formats a duration in a human-readable format
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return d.Round(time.Second).String()
	case d >= time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(time.Microsecond).String()
	}
}
