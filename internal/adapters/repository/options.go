package repository

import "time"

// Option applies a configuration option to the MemorySource.
type Option func(*MemorySource)

// WithFetchDelay makes every Inputs call wait d before reading, honouring
// context cancellation. Used to emulate a remote data layer.
func WithFetchDelay(d time.Duration) Option {
	return func(s *MemorySource) {
		if d > 0 {
			s.fetchDelay = d
		}
	}
}
