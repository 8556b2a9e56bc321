package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"papertrade/broker"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadSnapshotMissingUser(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.LoadSnapshot("nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)

	ts := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	in := &Snapshot{
		User:    "alice",
		Balance: 998_575,
		Positions: map[string]broker.Position{
			"2330": {Qty: 1000, AvgCost: 1001.425},
			"2603": {Qty: -2000, AvgCost: 500},
		},
		History: []broker.Transaction{
			{Time: ts, Action: broker.OpenLong, Symbol: "2330", Price: 1000, Qty: 1000, Fee: 1425},
			{Time: ts.Add(time.Hour), Action: broker.OpenShort, Symbol: "2603", Price: 500, Qty: 2000, Fee: 1425, Tax: 3000},
		},
		Watchlist: []string{"2330", "2603"},
	}
	if err := s.SaveSnapshot(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := s.LoadSnapshot("alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Balance != in.Balance {
		t.Errorf("balance = %v, want %v", out.Balance, in.Balance)
	}
	if len(out.Positions) != 2 {
		t.Fatalf("positions = %v", out.Positions)
	}
	if p := out.Positions["2603"]; p.Qty != -2000 || p.AvgCost != 500 {
		t.Errorf("short position = %+v", p)
	}
	if len(out.History) != 2 {
		t.Fatalf("history = %v", out.History)
	}
	if out.History[0].Action != broker.OpenLong || out.History[0].Fee != 1425 {
		t.Errorf("first transaction = %+v", out.History[0])
	}
	if !out.History[0].Time.Equal(ts) {
		t.Errorf("transaction time = %v, want %v", out.History[0].Time, ts)
	}
	if len(out.Watchlist) != 2 {
		t.Errorf("watchlist = %v", out.Watchlist)
	}
}

func TestSaveSnapshotReplacesState(t *testing.T) {
	s := openTestStore(t)

	first := &Snapshot{
		User:    "bob",
		Balance: 1_000_000,
		Positions: map[string]broker.Position{
			"2330": {Qty: 1000, AvgCost: 600},
		},
		History:   []broker.Transaction{{Time: time.Now(), Action: broker.OpenLong, Symbol: "2330", Price: 600, Qty: 1000}},
		Watchlist: []string{"2330"},
	}
	if err := s.SaveSnapshot(first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// second save with the position closed must not leave stale rows
	second := &Snapshot{
		User:      "bob",
		Balance:   1_100_000,
		Positions: map[string]broker.Position{},
		Watchlist: []string{"2317"},
	}
	if err := s.SaveSnapshot(second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	out, err := s.LoadSnapshot("bob")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Balance != 1_100_000 {
		t.Errorf("balance = %v", out.Balance)
	}
	if len(out.Positions) != 0 {
		t.Errorf("stale positions survived: %v", out.Positions)
	}
	if len(out.History) != 0 {
		t.Errorf("stale history survived: %v", out.History)
	}
	if len(out.Watchlist) != 1 || out.Watchlist[0] != "2317" {
		t.Errorf("watchlist = %v", out.Watchlist)
	}
}

func TestSnapshotsAreScopedPerUser(t *testing.T) {
	s := openTestStore(t)

	for _, user := range []string{"alice", "bob"} {
		snap := &Snapshot{User: user, Balance: 42, Positions: map[string]broker.Position{}}
		if err := s.SaveSnapshot(snap); err != nil {
			t.Fatalf("save %s: %v", user, err)
		}
	}

	alice := &Snapshot{
		User:      "alice",
		Balance:   777,
		Positions: map[string]broker.Position{"2330": {Qty: 1000, AvgCost: 1}},
	}
	if err := s.SaveSnapshot(alice); err != nil {
		t.Fatalf("resave alice: %v", err)
	}

	bob, err := s.LoadSnapshot("bob")
	if err != nil {
		t.Fatalf("load bob: %v", err)
	}
	if bob.Balance != 42 || len(bob.Positions) != 0 {
		t.Errorf("bob's snapshot polluted: %+v", bob)
	}
}
