package eval

import "github.com/robfig/bracket/data"

// Scope holds the variable bindings visible while rendering: a stack of local
// frames over the global data.  Locals shadow globals of the same name.
type Scope struct {
	global *data.Map
	frames []map[string]data.Value
}

// NewScope returns a scope with no local bindings.
func NewScope(global *data.Map) *Scope {
	return &Scope{global: global}
}

// Push creates a new local frame.
func (s *Scope) Push() {
	s.frames = append(s.frames, make(map[string]data.Value, 2))
}

// Pop discards the last frame pushed.
func (s *Scope) Pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// Set adds a new binding to the deepest frame.  With no frame pushed, the
// binding goes to a fresh one.
func (s *Scope) Set(k string, v data.Value) {
	if len(s.frames) == 0 {
		s.Push()
	}
	s.frames[len(s.frames)-1][k] = v
}

// Lookup checks the local frames, deepest out, and then the globals for the
// given key.
func (s *Scope) Lookup(k string) (data.Value, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if val, ok := s.frames[i][k]; ok {
			return val, true
		}
	}
	return s.global.Get(k)
}

// Path resolves a dot-separated variable path.  The first segment goes
// through Lookup and the rest descend into maps and lists.
func (s *Scope) Path(path string) (data.Value, bool) {
	var head, rest = path, ""
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			head, rest = path[:i], path[i+1:]
			break
		}
	}
	v, ok := s.Lookup(head)
	if !ok || rest == "" {
		return v, ok
	}
	return data.Lookup(v, rest)
}
