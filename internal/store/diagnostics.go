// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// diagnostics.go runs synthetic read benchmarks against the repository
// cache for operational insight. It never runs on the authentication path.
package store

import (
	"fmt"
	"time"
)

// DiagMode selects how Diagnostics exercises the cache.
type DiagMode string

const (
	// DiagCached reads through the cache, measuring the warm path.
	DiagCached DiagMode = "cached"

	// DiagBypass invalidates before every read, forcing a full document
	// load and parse each iteration.
	DiagBypass DiagMode = "bypass"
)

const (
	defaultDiagIterations = 100
	maxDiagIterations     = 10_000
)

// DiagReport summarizes a diagnostics run. Durations are milliseconds.
type DiagReport struct {
	Mode       DiagMode `json:"mode"`
	Iterations int      `json:"iterations"`
	Users      int      `json:"users"`
	CacheHits  uint64   `json:"cache_hits"`
	CacheLoads uint64   `json:"cache_loads"`
	TotalMS    float64  `json:"total_ms"`
	AvgMS      float64  `json:"avg_ms"`
	MinMS      float64  `json:"min_ms"`
	MaxMS      float64  `json:"max_ms"`
}

// Diagnostics performs iterations repeated Read calls, optionally forcing
// a cache bypass per mode, and reports timing and hit statistics.
func (s *UserStore) Diagnostics(iterations int, mode DiagMode) (*DiagReport, error) {
	if iterations <= 0 {
		iterations = defaultDiagIterations
	}
	if iterations > maxDiagIterations {
		iterations = maxDiagIterations
	}

	switch mode {
	case DiagCached, DiagBypass:
	case "":
		mode = DiagCached
	default:
		return nil, fmt.Errorf("unknown diagnostics mode %q", mode)
	}

	hitsBefore := s.hits.Load()
	missesBefore := s.misses.Load()

	var (
		total time.Duration
		min   time.Duration = -1
		max   time.Duration
		users int
	)

	for i := 0; i < iterations; i++ {
		if mode == DiagBypass {
			s.Invalidate()
		}

		start := time.Now()
		set, err := s.Read()
		elapsed := time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("diagnostics read %d: %w", i, err)
		}

		users = set.Len()
		total += elapsed
		if min < 0 || elapsed < min {
			min = elapsed
		}
		if elapsed > max {
			max = elapsed
		}
	}

	if min < 0 {
		min = 0
	}

	return &DiagReport{
		Mode:       mode,
		Iterations: iterations,
		Users:      users,
		CacheHits:  s.hits.Load() - hitsBefore,
		CacheLoads: s.misses.Load() - missesBefore,
		TotalMS:    float64(total.Microseconds()) / 1000,
		AvgMS:      float64(total.Microseconds()) / 1000 / float64(iterations),
		MinMS:      float64(min.Microseconds()) / 1000,
		MaxMS:      float64(max.Microseconds()) / 1000,
	}, nil
}
