// Package dedupe tracks keys that were already counted so record streams
// can be merged without double counting.
package dedupe

// Set records seen keys.
type Set interface {
	// SeenAndRecord checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(key string) bool
	// Seen reports whether key was recorded, without recording it.
	Seen(key string) bool
	// Unrecord removes key so it may be counted again.
	Unrecord(key string)
	Size() int
}

// keySet is a map-backed Set. It is not safe for concurrent use; every
// computation owns its own set.
type keySet struct {
	seen map[string]struct{}
	hint int
}

// NewSet creates an empty Set.
func NewSet(opts ...Option) Set {
	s := &keySet{}
	for _, opt := range opts {
		opt(s)
	}
	s.seen = make(map[string]struct{}, s.hint)
	return s
}

func (s *keySet) SeenAndRecord(key string) bool {
	if _, ok := s.seen[key]; ok {
		return true
	}
	s.seen[key] = struct{}{}
	return false
}

func (s *keySet) Seen(key string) bool {
	_, ok := s.seen[key]
	return ok
}

func (s *keySet) Unrecord(key string) {
	delete(s.seen, key)
}

func (s *keySet) Size() int {
	return len(s.seen)
}

// Unique returns items with duplicate keys removed, keeping the first
// occurrence. Items with an empty key are always kept.
func Unique[T any](items []T, key func(T) string) []T {
	s := NewSet(WithCapacity(len(items)))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := key(it)
		if k != "" && s.SeenAndRecord(k) {
			continue
		}
		out = append(out, it)
	}
	return out
}
