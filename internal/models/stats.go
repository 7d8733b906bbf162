package models

import (
	"sync/atomic"
	"time"
)

// BuildStats summarises one generator run
type BuildStats struct {
	Template   string      `json:"template"`
	Endpoints  int         `json:"endpoints"`
	Hosts      int         `json:"hosts"`
	Queries    int64       `json:"queries"`
	Alerts     int64       `json:"alerts"`
	Parts      int64       `json:"parts"`
	Files      []FileStat  `json:"files"`
	Stages     []StageStat `json:"stages"`
	StartTime  time.Time   `json:"startTime"`
	Duration   string      `json:"duration"`
	TotalBytes int64       `json:"totalBytes"`
}

// StageStat records how long one pipeline stage took
type StageStat struct {
	Name       string  `json:"name"`
	Runs       int64   `json:"runs"`
	DurationMs float64 `json:"durationMs"`
}

// FileStat describes one written artifact
type FileStat struct {
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// AtomicStageStat is a thread-safe accumulator for a stage
type AtomicStageStat struct {
	Name        string
	Runs        atomic.Int64
	TotalTimeNs atomic.Int64
}

// ToStageStat converts to a regular StageStat
func (a *AtomicStageStat) ToStageStat() StageStat {
	return StageStat{
		Name:       a.Name,
		Runs:       a.Runs.Load(),
		DurationMs: float64(a.TotalTimeNs.Load()) / 1e6,
	}
}
