package dedupe

// Option applies a configuration option to a Set.
type Option func(*keySet)

// WithCapacity preallocates room for n keys.
func WithCapacity(n int) Option {
	return func(s *keySet) {
		if n > 0 {
			s.hint = n
		}
	}
}
