// Package store holds the cross-screen session state: bearer token, display
// identity, cart contents and cart selection. Screens read snapshots and send
// actions; only Dispatch mutates.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"rentalhub/internal/domain"
	"rentalhub/internal/identity"
	applog "rentalhub/internal/log"
	"rentalhub/internal/repos"
)

type Toast struct {
	Level   string `json:"level"` // info | error
	Message string `json:"message"`
}

type State struct {
	SID        string
	Token      string
	Identity   domain.Identity
	Cart       []domain.CartItem
	CartLoaded bool
	Selected   map[string]bool
	Toasts     []Toast
}

func (s State) SignedIn() bool { return s.Token != "" }

// Item finds a cart line by key.
func (s State) Item(key string) (domain.CartItem, bool) {
	for _, it := range s.Cart {
		if it.Key() == key {
			return it, true
		}
	}
	return domain.CartItem{}, false
}

// SelectedItems keeps cart order.
func (s State) SelectedItems() []domain.CartItem {
	var out []domain.CartItem
	for _, it := range s.Cart {
		if s.Selected[it.Key()] {
			out = append(out, it)
		}
	}
	return out
}

func (s State) clone() State {
	c := s
	c.Cart = append([]domain.CartItem(nil), s.Cart...)
	c.Selected = make(map[string]bool, len(s.Selected))
	for k, v := range s.Selected {
		c.Selected[k] = v
	}
	c.Toasts = append([]Toast(nil), s.Toasts...)
	return c
}

// Persister keeps the parts of a session that must survive a restart.
type Persister interface {
	Load(sid string) (repos.SessionRow, error)
	SaveToken(sid, token string) error
	SaveSelection(sid string, keys []string) error
	Delete(sid string) error
	Touch(sid string) error
}

type Listener func(sid string, a Action, s State)

type Store struct {
	mu       sync.Mutex
	sessions map[string]*State
	seen     map[string]time.Time
	persist  Persister
	nextSub  int
	subs     map[int]Listener
	onEvict  []func(sid string)
	now      func() time.Time
}

func New(p Persister) *Store {
	return &Store{
		sessions: make(map[string]*State),
		seen:     make(map[string]time.Time),
		persist:  p,
		subs:     make(map[int]Listener),
		now:      time.Now,
	}
}

// find returns the live state, restoring it from the persister on first use.
// Unless keep is set, a sid with no saved token or selection yields nil and
// is not held. Caller holds mu.
func (st *Store) find(sid string, keep bool) *State {
	if s, ok := st.sessions[sid]; ok {
		st.seen[sid] = st.now()
		return s
	}
	s := st.restore(sid)
	if !keep && !s.SignedIn() && len(s.Selected) == 0 {
		return nil
	}
	st.sessions[sid] = s
	st.seen[sid] = st.now()
	return s
}

func (st *Store) lookup(sid string) *State  { return st.find(sid, false) }
func (st *Store) session(sid string) *State { return st.find(sid, true) }

func (st *Store) restore(sid string) *State {
	s := &State{SID: sid, Selected: map[string]bool{}}
	if st.persist != nil {
		row, err := st.persist.Load(sid)
		if err != nil {
			applog.Error(nil, "session.load.fail", err, map[string]any{"sid": sid})
		} else {
			s.Token = row.Token
			for _, k := range row.Selected {
				s.Selected[k] = true
			}
		}
		if s.Token != "" {
			if id, err := identity.Decode(s.Token); err == nil {
				s.Identity = id
			}
		}
	}
	return s
}

// Snapshot returns a copy of the session. A visitor with nothing to keep gets
// an empty state that is not retained.
func (st *Store) Snapshot(sid string) State {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s := st.lookup(sid); s != nil {
		return s.clone()
	}
	return State{SID: sid, Selected: map[string]bool{}}
}

// Len is the number of sessions held in memory.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// OnEvict registers fn to run for every session dropped by Sweep.
func (st *Store) OnEvict(fn func(sid string)) {
	st.mu.Lock()
	st.onEvict = append(st.onEvict, fn)
	st.mu.Unlock()
}

// Sweep drops sessions not seen for idle. Signed-in sessions stay restorable
// from the persister; their last activity is written back first.
func (st *Store) Sweep(idle time.Duration) []string {
	st.mu.Lock()
	cutoff := st.now().Add(-idle)
	var gone []string
	for sid, at := range st.seen {
		if at.After(cutoff) {
			continue
		}
		if s := st.sessions[sid]; s != nil && s.SignedIn() && st.persist != nil {
			if err := st.persist.Touch(sid); err != nil {
				applog.Error(nil, "session.touch.fail", err, map[string]any{"sid": sid})
			}
		}
		delete(st.sessions, sid)
		delete(st.seen, sid)
		gone = append(gone, sid)
	}
	hooks := append([]func(string){}, st.onEvict...)
	st.mu.Unlock()

	for _, sid := range gone {
		for _, fn := range hooks {
			fn(sid)
		}
	}
	if len(gone) > 0 {
		applog.Debug(nil, "session.sweep", map[string]any{"evicted": len(gone)})
	}
	return gone
}

type pruner interface {
	Prune(cutoff time.Time) (int64, error)
}

// Janitor sweeps idle sessions every interval until ctx is done. Saved
// sessions untouched for ttl are pruned from the persister too.
func (st *Store) Janitor(ctx context.Context, interval, idle, ttl time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st.Sweep(idle)
			p, ok := st.persist.(pruner)
			if !ok {
				continue
			}
			if n, err := p.Prune(st.now().Add(-ttl)); err != nil {
				applog.Error(nil, "session.prune.fail", err, nil)
			} else if n > 0 {
				applog.Info(nil, "session.prune", map[string]any{"deleted": n})
			}
		}
	}
}

// Dispatch applies a to the session and returns the resulting snapshot.
func (st *Store) Dispatch(sid string, a Action) State {
	st.mu.Lock()
	s := st.session(sid)
	before := s.clone()
	a.apply(s)
	st.persistChange(sid, before, s)
	if _, ok := a.(ClearSession); ok {
		delete(st.sessions, sid)
		delete(st.seen, sid)
	}
	snap := s.clone()
	subs := make([]Listener, 0, len(st.subs))
	for _, l := range st.subs {
		subs = append(subs, l)
	}
	st.mu.Unlock()

	for _, l := range subs {
		l(sid, a, snap)
	}
	return snap
}

// DrainToasts returns pending toasts and clears them.
func (st *Store) DrainToasts(sid string) []Toast {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.lookup(sid)
	if s == nil {
		return nil
	}
	out := s.Toasts
	s.Toasts = nil
	return out
}

// Subscribe registers l for every dispatched action; call the returned func to stop.
func (st *Store) Subscribe(l Listener) func() {
	st.mu.Lock()
	defer st.mu.Unlock()
	id := st.nextSub
	st.nextSub++
	st.subs[id] = l
	return func() {
		st.mu.Lock()
		delete(st.subs, id)
		st.mu.Unlock()
	}
}

func (st *Store) persistChange(sid string, before State, after *State) {
	if st.persist == nil {
		return
	}
	switch {
	case after.Token == "" && before.Token != "":
		// Selection rows cascade with the session row.
		if err := st.persist.Delete(sid); err != nil {
			applog.Error(nil, "session.delete.fail", err, map[string]any{"sid": sid})
		}
		return
	case after.Token != before.Token:
		if err := st.persist.SaveToken(sid, after.Token); err != nil {
			applog.Error(nil, "session.save.fail", err, map[string]any{"sid": sid})
		}
	}
	if !sameKeys(before.Selected, after.Selected) {
		if err := st.persist.SaveSelection(sid, keys(after.Selected)); err != nil {
			applog.Error(nil, "session.selection.save.fail", err, map[string]any{"sid": sid})
		}
	}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		if v {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func sameKeys(a, b map[string]bool) bool {
	ka, kb := keys(a), keys(b)
	if len(ka) != len(kb) {
		return false
	}
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}
