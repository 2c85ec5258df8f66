// Kasrah Games - Discovery and Engagement Engine
// Copyright 2026 Kasrah Games contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AbuSalehBinshaq/Kasrah-Games-sub000

package services

import (
	"context"
	"time"

	"github.com/AbuSalehBinshaq/Kasrah-Games-sub000/internal/logging"
)

// defaultSweepInterval applies when no positive interval is configured.
const defaultSweepInterval = time.Minute

// Sweeper is satisfied by *cache.Cache.
type Sweeper interface {
	Name() string
	Sweep() int
}

// CacheSweeperService periodically reclaims expired cache entries. Each
// sweep also refreshes the cache size gauge.
//
// Expired entries are already invisible to readers. The sweep only bounds
// memory held by keys that are never read again.
type CacheSweeperService struct {
	cache    Sweeper
	interval time.Duration
}

// NewCacheSweeperService sweeps c every interval.
func NewCacheSweeperService(c Sweeper, interval time.Duration) *CacheSweeperService {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &CacheSweeperService{cache: c, interval: interval}
}

// Serve implements suture.Service.
func (s *CacheSweeperService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if removed := s.cache.Sweep(); removed > 0 {
				logging.Debug().
					Str("cache", s.cache.Name()).
					Int("removed", removed).
					Msg("Swept expired cache entries")
			}
		}
	}
}

// String implements fmt.Stringer.
func (s *CacheSweeperService) String() string {
	return "cache-sweeper:" + s.cache.Name()
}
