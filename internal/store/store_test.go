package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentalhub/internal/domain"
	"rentalhub/internal/repos"
)

func item(pid string, day int) domain.CartItem {
	start := time.Date(2026, 5, day, 9, 0, 0, 0, time.UTC)
	return domain.CartItem{ProductID: pid, Quantity: 1, RentalStart: start, RentalEnd: start.Add(48 * time.Hour)}
}

func TestReplaceCartPrunesSelection(t *testing.T) {
	st := New(nil)
	a, b := item("p1", 1), item("p1", 10)
	st.Dispatch("s", ReplaceCart{Items: []domain.CartItem{a, b}})
	st.Dispatch("s", SelectAll{On: true})
	require.Len(t, st.Snapshot("s").SelectedItems(), 2)

	// Same product, different window: independent lines.
	st.Dispatch("s", ToggleSelect{Key: a.Key()})
	snap := st.Snapshot("s")
	assert.False(t, snap.Selected[a.Key()])
	assert.True(t, snap.Selected[b.Key()])

	snap = st.Dispatch("s", ReplaceCart{Items: []domain.CartItem{a}})
	assert.Empty(t, snap.Selected)
}

func TestSnapshotsAreCopies(t *testing.T) {
	st := New(nil)
	it := item("p1", 1)
	snap := st.Dispatch("s", ReplaceCart{Items: []domain.CartItem{it}})
	snap.Cart[0].Quantity = 99
	snap.Selected["x"] = true

	again := st.Snapshot("s")
	assert.Equal(t, 1, again.Cart[0].Quantity)
	assert.Empty(t, again.Selected)

	st.Dispatch("s", SetQuantity{Key: it.Key(), Quantity: 4})
	assert.Equal(t, 4, st.Snapshot("s").Cart[0].Quantity)
}

func TestSubscribeAndToasts(t *testing.T) {
	st := New(nil)
	var seen []Action
	cancel := st.Subscribe(func(sid string, a Action, _ State) {
		assert.Equal(t, "s", sid)
		seen = append(seen, a)
	})
	st.Dispatch("s", PushToast{Toast: Toast{Level: "error", Message: "boom"}})
	cancel()
	st.Dispatch("s", PushToast{Toast: Toast{Level: "info", Message: "ok"}})

	assert.Len(t, seen, 1)
	assert.Len(t, st.DrainToasts("s"), 2)
	assert.Empty(t, st.DrainToasts("s"))
}

func TestSessionSurvivesRestart(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "u1", "fullName": "Lan"}).
		SignedString([]byte("k"))
	require.NoError(t, err)

	it := item("p1", 1)
	first := New(repos.NewSessionRepo(db))
	first.Dispatch("sid", SetSession{Token: tok})
	first.Dispatch("sid", ReplaceCart{Items: []domain.CartItem{it}})
	first.Dispatch("sid", ToggleSelect{Key: it.Key()})

	second := New(repos.NewSessionRepo(db))
	snap := second.Snapshot("sid")
	assert.True(t, snap.SignedIn())
	assert.Equal(t, "Lan", snap.Identity.FullName)
	assert.True(t, snap.Selected[it.Key()])

	second.Dispatch("sid", ClearSession{})
	third := New(repos.NewSessionRepo(db))
	snap = third.Snapshot("sid")
	assert.False(t, snap.SignedIn())
	assert.Empty(t, snap.Selected)
}

func TestAnonymousSnapshotsAreNotHeld(t *testing.T) {
	st := New(nil)
	for i := 0; i < 1000; i++ {
		snap := st.Snapshot(fmt.Sprintf("visitor-%d", i))
		assert.False(t, snap.SignedIn())
		assert.Empty(t, st.DrainToasts(snap.SID))
	}
	assert.Zero(t, st.Len())

	st.Dispatch("lan", SetSession{Token: "tok"})
	assert.Equal(t, 1, st.Len())
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	st := New(repos.NewSessionRepo(db))
	st.now = func() time.Time { return now }
	var evicted []string
	st.OnEvict(func(sid string) { evicted = append(evicted, sid) })

	st.Dispatch("idle", SetSession{Token: "tok-idle"})
	st.Dispatch("busy", SetSession{Token: "tok-busy"})
	now = now.Add(20 * time.Minute)
	st.Snapshot("busy")
	now = now.Add(20 * time.Minute)

	assert.Equal(t, []string{"idle"}, st.Sweep(30*time.Minute))
	assert.Equal(t, []string{"idle"}, evicted)
	assert.Equal(t, 1, st.Len())

	// The token was persisted, so the next request restores the session.
	assert.True(t, st.Snapshot("idle").SignedIn())
}
