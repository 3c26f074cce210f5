package session

import (
	"testing"
	"time"

	"github.com/broadside-gg/broadside/internal/game"
)

// playingGame sets up a hosted game in the playing phase and returns its id.
func playingGame(t *testing.T, reg *Registry) string {
	t.Helper()
	id, _, err := reg.Host("Alice")
	if err != nil {
		t.Fatalf("Host: %v", err)
	}
	if _, err := reg.Join(id, "Bob"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	for _, slot := range []game.Slot{game.Slot1, game.Slot2} {
		if err := reg.PlaceShips(id, slot, fleetPlacements()); err != nil {
			t.Fatalf("PlaceShips %v: %v", slot, err)
		}
	}
	return id
}

// touchBoth refreshes both players' activity so only the transition under
// test can fire.
func touchBoth(t *testing.T, reg *Registry, id string) {
	t.Helper()
	if _, err := reg.State(id, game.Slot1); err != nil {
		t.Fatalf("State 1: %v", err)
	}
	if _, err := reg.State(id, game.Slot2); err != nil {
		t.Fatalf("State 2: %v", err)
	}
}

func TestHousekeeperTurnTimeout(t *testing.T) {
	reg, clk := newTestRegistry(nil)
	keeper := NewHousekeeper(reg)
	id := playingGame(t, reg)

	clk.Advance(61 * time.Second)
	touchBoth(t, reg, id)
	keeper.Sweep()

	// The timed-out player lost the turn.
	_, err := reg.Attack(id, game.Slot1, 0, 0)
	assertCode(t, err, game.CodeForbidden)
	if _, err := reg.Attack(id, game.Slot2, 0, 0); err != nil {
		t.Fatalf("Attack by new turn holder: %v", err)
	}
}

func TestHousekeeperPauseForfeitReap(t *testing.T) {
	sink := &recordingSink{}
	reg, clk := newTestRegistry(sink)
	keeper := NewHousekeeper(reg)
	id := playingGame(t, reg)

	// Bob stops polling.
	clk.Advance(6 * time.Second)
	if _, err := reg.State(id, game.Slot1); err != nil {
		t.Fatalf("State: %v", err)
	}
	keeper.Sweep()

	snap, err := reg.State(id, game.Slot1)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if snap.GamePhase != game.PhasePaused {
		t.Fatalf("phase = %v, want paused", snap.GamePhase)
	}
	if snap.OpponentConnected {
		t.Fatalf("opponent still marked connected")
	}

	// Reconnect window elapses; Alice wins by forfeit.
	clk.Advance(61 * time.Second)
	keeper.Sweep()

	if len(sink.records) != 1 {
		t.Fatalf("history records = %d, want 1 forfeit", len(sink.records))
	}
	if sink.records[0].reason != ReasonForfeit || sink.records[0].sum.Winner != "Alice" {
		t.Fatalf("record = %+v", sink.records[0])
	}

	snap, err = reg.State(id, game.Slot1)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if !snap.GameOver || snap.Winner != "Alice" {
		t.Fatalf("snapshot = game_over %v winner %q", snap.GameOver, snap.Winner)
	}

	// Terminal grace elapses; the room is reaped and tombstoned.
	clk.Advance(11 * time.Second)
	keeper.Sweep()

	if reg.RoomCount() != 0 {
		t.Fatalf("RoomCount = %d, want 0 after reap", reg.RoomCount())
	}
	_, err = reg.State(id, game.Slot1)
	assertCode(t, err, game.CodeNotFound)
}

func TestHousekeeperReconnectWithinWindow(t *testing.T) {
	reg, clk := newTestRegistry(nil)
	keeper := NewHousekeeper(reg)
	id := playingGame(t, reg)

	clk.Advance(6 * time.Second)
	if _, err := reg.State(id, game.Slot1); err != nil {
		t.Fatalf("State: %v", err)
	}
	keeper.Sweep()

	clk.Advance(30 * time.Second)
	res, err := reg.Join(id, "Bob")
	if err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if !res.Reconnected {
		t.Fatalf("result = %+v, want reconnected", res)
	}

	snap, err := reg.State(id, game.Slot2)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if snap.GamePhase != game.PhasePlaying {
		t.Fatalf("phase = %v, want playing after reconnect", snap.GamePhase)
	}
	// The returning player gets a fresh full turn clock.
	if snap.TurnTimeRemaining == nil || *snap.TurnTimeRemaining != 60 {
		t.Fatalf("turn_time_remaining = %v, want full 60s", snap.TurnTimeRemaining)
	}
}

func TestHousekeeperAbandonedLobby(t *testing.T) {
	sink := &recordingSink{}
	reg, clk := newTestRegistry(sink)
	keeper := NewHousekeeper(reg)

	if _, _, err := reg.Host("Alice"); err != nil {
		t.Fatalf("Host: %v", err)
	}

	clk.Advance(61 * time.Second)
	keeper.Sweep()

	if len(sink.records) != 1 || sink.records[0].reason != ReasonAbandoned {
		t.Fatalf("records = %+v, want one abandoned", sink.records)
	}

	// The terminal room lingers through the grace period, then goes.
	if reg.RoomCount() != 1 {
		t.Fatalf("RoomCount = %d, want 1 during grace", reg.RoomCount())
	}
	clk.Advance(11 * time.Second)
	keeper.Sweep()
	if reg.RoomCount() != 0 {
		t.Fatalf("RoomCount = %d, want 0", reg.RoomCount())
	}
}

func TestHousekeeperExpiresQueue(t *testing.T) {
	reg, clk := newTestRegistry(nil)
	keeper := NewHousekeeper(reg)

	if _, err := reg.QuickMatch("Carol"); err != nil {
		t.Fatalf("QuickMatch: %v", err)
	}
	clk.Advance(121 * time.Second)
	keeper.Sweep()

	if reg.QueueLen() != 0 {
		t.Fatalf("QueueLen = %d, want 0", reg.QueueLen())
	}
}

func TestHousekeeperStartStop(t *testing.T) {
	reg, _ := newTestRegistry(nil)
	keeper := NewHousekeeper(reg)

	swept := make(chan struct{}, 1)
	keeper.sweepHook = func() {
		select {
		case swept <- struct{}{}:
		default:
		}
	}

	keeper.Start()
	select {
	case <-swept:
	case <-time.After(5 * time.Second):
		t.Fatalf("no sweep within 5s")
	}
	keeper.Stop()
	// Stop is idempotent.
	keeper.Stop()
}
