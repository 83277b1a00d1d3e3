package page

// Entry is one session history slot.
type Entry struct {
	State    map[string]string
	Location Location
}

// PopStateHandler is invoked when back/forward lands on an entry.
type PopStateHandler func(Entry)

// History is a linear session history with pushState semantics.
type History struct {
	entries   []Entry
	index     int
	listeners []PopStateHandler
}

func newHistory(loc Location) *History {
	return &History{entries: []Entry{{Location: loc}}}
}

// Current returns the active entry.
func (h *History) Current() Entry {
	return h.entries[h.index]
}

// Len is the number of entries.
func (h *History) Len() int { return len(h.entries) }

// PushState adds an entry after the current one, dropping any forward
// entries. ref is resolved against the current location. No popstate fires
// and no document load happens.
func (h *History) PushState(state map[string]string, ref string) {
	next := Entry{State: copyState(state), Location: h.Current().Location.Resolve(ref)}
	h.entries = append(h.entries[:h.index+1], next)
	h.index++
}

// OnPopState registers a listener for back/forward traversal.
func (h *History) OnPopState(fn PopStateHandler) {
	if fn != nil {
		h.listeners = append(h.listeners, fn)
	}
}

// Back moves one entry back and fires popstate. It reports false at the
// start of history.
func (h *History) Back() bool { return h.Go(-1) }

// Forward moves one entry forward and fires popstate.
func (h *History) Forward() bool { return h.Go(1) }

// Go traverses delta entries and fires popstate on success.
func (h *History) Go(delta int) bool {
	target := h.index + delta
	if delta == 0 || target < 0 || target >= len(h.entries) {
		return false
	}
	h.index = target
	e := h.Current()
	for _, fn := range h.listeners {
		fn(e)
	}
	return true
}

func copyState(s map[string]string) map[string]string {
	if s == nil {
		return nil
	}
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
