package schedule

import "sync"

// dayFormat is the local calendar date key. At-most-once is per calendar
// date, not a rolling 24h window.
const dayFormat = "2006-01-02"

// State tracks, per slot, the date on which that entry last fired. The zero
// map means nothing has fired. Guarded because the config watcher and the
// tick loop run on different goroutines.
type State struct {
	mu        sync.Mutex
	lastFired map[string]string // slot -> day
}

func NewState() *State {
	return &State{lastFired: map[string]string{}}
}

// Seed installs persisted last-fired dates (restart protection). Existing
// in-memory entries win.
func (st *State) Seed(m map[string]string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for slot, day := range m {
		if _, ok := st.lastFired[slot]; !ok {
			st.lastFired[slot] = day
		}
	}
}

// FiredOn reports whether slot already fired on day.
func (st *State) FiredOn(slot, day string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastFired[slot] == day
}

// MarkFired records that slot fired on day.
func (st *State) MarkFired(slot, day string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.lastFired[slot] = day
}

// Snapshot returns a copy of the last-fired map.
func (st *State) Snapshot() map[string]string {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make(map[string]string, len(st.lastFired))
	for k, v := range st.lastFired {
		out[k] = v
	}
	return out
}
