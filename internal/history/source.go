package history

import (
	"context"
	"time"
)

// Query describes a history request for a fixed set of tags
type Query struct {
	Tags       []string  // Tag names to retrieve
	Start      time.Time // Inclusive start of the window
	End        time.Time // Inclusive end of the window
	MaxSamples int       // Upper bound on returned samples, 0 means unbounded
	Downsample bool      // Spread MaxSamples over the whole window instead of truncating
}

// Result is a batch of samples returned for a query
type Result struct {
	Samples []Sample
	Count   int64 // Number of samples matching the query before limiting
}

// Source retrieves historical samples for a time window
type Source interface {
	QuerySamples(ctx context.Context, q Query) (*Result, error)
}
