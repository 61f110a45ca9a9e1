package common

import "time"

const (
	// Cache keys for the read-through layer. Snapshot keys are per asset
	// class, news keys per category plus one for the merged latest list.
	CacheKeySnapshotsByClass = "market:snapshots:%s"
	CacheKeySnapshot         = "market:snapshot:%s"
	CacheKeyLatestNews       = "news:latest"
	CacheKeyNewsByCategory   = "news:category:%s"

	// CacheTTL bounds how long a cached payload is considered fresh.
	CacheTTL = time.Hour
)
