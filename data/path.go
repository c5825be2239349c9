package data

import (
	"strconv"
	"strings"
)

// Indexer is implemented by values that support keyed access.
type Indexer interface {
	Index(key string) (Value, bool)
}

// Index implements Indexer.
func (m *Map) Index(key string) (Value, bool) {
	return m.Get(key)
}

// Index implements Indexer.  The key must be a non-negative decimal integer.
func (v List) Index(key string) (Value, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= len(v) {
		return nil, false
	}
	return v[i], true
}

// Walk descends from v through each segment in turn.  It reports false as
// soon as a segment is missing or the current value cannot be indexed.
func Walk(v Value, segments []string) (Value, bool) {
	for _, seg := range segments {
		idx, ok := v.(Indexer)
		if !ok {
			return nil, false
		}
		if v, ok = idx.Index(seg); !ok {
			return nil, false
		}
	}
	return v, true
}

// Lookup resolves a dot-separated path such as "user.address.city" against
// root.
func Lookup(root Value, path string) (Value, bool) {
	return Walk(root, strings.Split(path, "."))
}
