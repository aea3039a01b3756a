package domain

import "time"

type UsageLog struct {
	RunID           string
	Files           int
	Format          Format
	PixelsProcessed int64
	SourceBytes     int64
	OutputBytes     int64
	BytesSaved      int64
	ComputeTimeMS   int64
	CreatedAt       time.Time
}
