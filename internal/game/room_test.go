package game

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/broadside-gg/broadside/internal/battle"
)

var testTimings = Timings{
	TurnTimeout:       60 * time.Second,
	InactivityTimeout: 5 * time.Second,
	ReconnectWindow:   60 * time.Second,
	TerminalGrace:     10 * time.Second,
}

var t0 = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func fullFleet() []ShipPlacement {
	return []ShipPlacement{
		{Name: "AircraftCarrier", StartRow: 0, StartCol: 0, Orientation: "H"},
		{Name: "Battleship", StartRow: 2, StartCol: 0, Orientation: "H"},
		{Name: "Cruiser", StartRow: 4, StartCol: 0, Orientation: "H"},
		{Name: "Submarine", StartRow: 6, StartCol: 0, Orientation: "H"},
		{Name: "PatrolBoat", StartRow: 8, StartCol: 0, Orientation: "H"},
	}
}

// playingRoom returns a room with both fleets placed, in the playing phase.
func playingRoom(t *testing.T) *Room {
	t.Helper()
	r := NewHosted("room1", "Alice", testTimings, t0)
	if _, err := r.Join("Bob", t0); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := r.PlaceShips(Slot1, fullFleet(), t0); err != nil {
		t.Fatalf("PlaceShips 1: %v", err)
	}
	if err := r.PlaceShips(Slot2, fullFleet(), t0); err != nil {
		t.Fatalf("PlaceShips 2: %v", err)
	}
	if got := r.Phase(); got != PhasePlaying {
		t.Fatalf("phase = %v, want playing", got)
	}
	return r
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error = %v, want coded *Error", err)
	}
	if gerr.Code != code {
		t.Fatalf("error code = %s (%s), want %s", gerr.Code, gerr.Message, code)
	}
}

func TestPhaseProgression(t *testing.T) {
	r := NewHosted("room1", "Alice", testTimings, t0)
	if got := r.Phase(); got != PhaseLobby {
		t.Fatalf("phase = %v, want lobby", got)
	}

	if _, err := r.Join("Bob", t0); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if got := r.Phase(); got != PhasePlacing {
		t.Fatalf("phase = %v, want placing after second seat", got)
	}

	if err := r.PlaceShips(Slot1, fullFleet(), t0); err != nil {
		t.Fatalf("PlaceShips 1: %v", err)
	}
	if got := r.Phase(); got != PhasePlacing {
		t.Fatalf("phase = %v, want placing with one fleet in", got)
	}

	if err := r.PlaceShips(Slot2, fullFleet(), t0); err != nil {
		t.Fatalf("PlaceShips 2: %v", err)
	}
	if got := r.Phase(); got != PhasePlaying {
		t.Fatalf("phase = %v, want playing", got)
	}
}

func TestJoinFullRoom(t *testing.T) {
	r := NewHosted("room1", "Alice", testTimings, t0)
	if _, err := r.Join("Bob", t0); err != nil {
		t.Fatalf("Join: %v", err)
	}
	_, err := r.Join("Mallory", t0)
	assertCode(t, err, CodeForbidden)
}

func TestJoinSameNameWhileConnected(t *testing.T) {
	r := NewHosted("room1", "Alice", testTimings, t0)
	_, err := r.Join("Alice", t0)
	assertCode(t, err, CodeForbidden)
}

func TestPlaceShipsValidation(t *testing.T) {
	r := NewHosted("room1", "Alice", testTimings, t0)

	// Lobby phase rejects placement.
	err := r.PlaceShips(Slot1, fullFleet(), t0)
	assertCode(t, err, CodeForbidden)

	if _, err := r.Join("Bob", t0); err != nil {
		t.Fatalf("Join: %v", err)
	}

	bad := fullFleet()
	bad[0].Name = "Dreadnought"
	assertCode(t, r.PlaceShips(Slot1, bad, t0), CodeInvalidArgument)

	dup := fullFleet()
	dup[1] = dup[0]
	assertCode(t, r.PlaceShips(Slot1, dup, t0), CodeInvalidArgument)

	overlap := fullFleet()
	overlap[1].StartRow = 0 // collides with the carrier
	assertCode(t, r.PlaceShips(Slot1, overlap, t0), CodeForbidden)

	short := fullFleet()[:3]
	assertCode(t, r.PlaceShips(Slot1, short, t0), CodeForbidden)

	// A failed submission leaves the slot unplaced: a good one still works.
	if err := r.PlaceShips(Slot1, fullFleet(), t0); err != nil {
		t.Fatalf("PlaceShips after failures: %v", err)
	}
}

func TestReplaceShipsBeforeOpponentReady(t *testing.T) {
	r := NewHosted("room1", "Alice", testTimings, t0)
	if _, err := r.Join("Bob", t0); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := r.PlaceShips(Slot1, fullFleet(), t0); err != nil {
		t.Fatalf("first placement: %v", err)
	}

	moved := fullFleet()
	for i := range moved {
		moved[i].StartCol = 3
	}
	if err := r.PlaceShips(Slot1, moved, t0); err != nil {
		t.Fatalf("re-placement: %v", err)
	}

	snap, err := r.PlayerSnapshot(Slot1, t0)
	if err != nil {
		t.Fatalf("PlayerSnapshot: %v", err)
	}
	if snap.OwnBoard[0][0] != "." || snap.OwnBoard[0][3] == "." {
		t.Fatalf("re-placement not reflected: row0 = %v", snap.OwnBoard[0])
	}
}

func TestAttackTurnAlternation(t *testing.T) {
	r := playingRoom(t)

	// Player 2 cannot open.
	_, err := r.Attack(Slot2, 0, 0, t0)
	assertCode(t, err, CodeForbidden)

	// A hit swaps the turn.
	res, err := r.Attack(Slot1, 0, 0, t0)
	if err != nil {
		t.Fatalf("Attack: %v", err)
	}
	if res.Outcome.Kind != battle.OutcomeHit {
		t.Fatalf("outcome = %v, want hit", res.Outcome.Kind)
	}
	if _, err := r.Attack(Slot1, 0, 1, t0); err == nil {
		t.Fatalf("second attack in a row accepted")
	}

	// A miss also swaps.
	if _, err := r.Attack(Slot2, 9, 9, t0); err != nil {
		t.Fatalf("Attack p2: %v", err)
	}

	// Invalid coordinates do not consume the turn.
	res, err = r.Attack(Slot1, 42, 0, t0)
	if err != nil {
		t.Fatalf("Attack oob: %v", err)
	}
	if res.Outcome.Kind != battle.OutcomeInvalid {
		t.Fatalf("outcome = %v, want invalid", res.Outcome.Kind)
	}
	if _, err := r.Attack(Slot1, 0, 1, t0); err != nil {
		t.Fatalf("turn was consumed by invalid attack: %v", err)
	}

	// Repeating a resolved cell does not consume the turn either.
	res, err = r.Attack(Slot2, 9, 9, t0)
	if err != nil {
		t.Fatalf("Attack repeat: %v", err)
	}
	if res.Outcome.Kind != battle.OutcomeAlready {
		t.Fatalf("outcome = %v, want already", res.Outcome.Kind)
	}
	if _, err := r.Attack(Slot2, 9, 8, t0); err != nil {
		t.Fatalf("turn was consumed by repeat attack: %v", err)
	}
}

func TestAttackWin(t *testing.T) {
	r := playingRoom(t)

	targets := [][2]int{}
	for _, f := range []struct{ row, length int }{
		{0, 5}, {2, 4}, {4, 3}, {6, 3}, {8, 2},
	} {
		for c := 0; c < f.length; c++ {
			targets = append(targets, [2]int{f.row, c})
		}
	}

	var last AttackResult
	for i, tgt := range targets {
		res, err := r.Attack(Slot1, tgt[0], tgt[1], t0)
		if err != nil {
			t.Fatalf("attack %d: %v", i, err)
		}
		last = res
		if res.GameOver {
			break
		}
		if _, err := r.Attack(Slot2, 9-2*(i/10), i%10, t0); err != nil {
			t.Fatalf("reply %d: %v", i, err)
		}
	}

	if !last.GameOver || last.Winner != "Alice" {
		t.Fatalf("final result = %+v, want Alice's win", last)
	}
	if got := r.Phase(); got != PhaseOver {
		t.Fatalf("phase = %v, want over", got)
	}

	// Terminal rooms accept no further attacks.
	_, err := r.Attack(Slot2, 0, 0, t0)
	assertCode(t, err, CodeForbidden)

	sum := r.Summarize()
	if sum.Winner != "Alice" || sum.Moves == 0 {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestSnapshotMasksOpponentBoard(t *testing.T) {
	r := playingRoom(t)
	if _, err := r.Attack(Slot1, 0, 0, t0); err != nil { // hit
		t.Fatalf("Attack: %v", err)
	}
	if _, err := r.Attack(Slot2, 9, 9, t0); err != nil { // miss
		t.Fatalf("Attack: %v", err)
	}

	snap, err := r.PlayerSnapshot(Slot1, t0)
	if err != nil {
		t.Fatalf("PlayerSnapshot: %v", err)
	}

	// The opponent view shows only hits and misses.
	for ri, row := range snap.OpponentBoard {
		for ci, cell := range row {
			if cell != "." && cell != "X" && cell != "O" {
				t.Fatalf("opponent_board[%d][%d] = %q leaks ship placement", ri, ci, cell)
			}
		}
	}
	if snap.OpponentBoard[0][0] != "X" {
		t.Fatalf("hit not visible at (0,0): %q", snap.OpponentBoard[0][0])
	}

	// The own view shows the fleet and the opponent's miss.
	if snap.OwnBoard[9][9] != "O" {
		t.Fatalf("own_board[9][9] = %q, want O", snap.OwnBoard[9][9])
	}
	if snap.OwnBoard[0][0] != "A" {
		t.Fatalf("own_board[0][0] = %q, want carrier marker", snap.OwnBoard[0][0])
	}

	if !snap.YourTurn {
		t.Fatalf("your_turn = false, want true after opponent's move")
	}
	if snap.TurnTimeRemaining == nil {
		t.Fatalf("turn_time_remaining missing while playing")
	}
}

func TestSnapshotEchoesPlacements(t *testing.T) {
	r := playingRoom(t)
	snap, err := r.PlayerSnapshot(Slot2, t0)
	if err != nil {
		t.Fatalf("PlayerSnapshot: %v", err)
	}
	if len(snap.PlacedShips) != 5 || snap.PlacedShips[0].Name != "AircraftCarrier" {
		t.Fatalf("placed_ships = %+v", snap.PlacedShips)
	}
	if snap.PlayerName != "Bob" || snap.OpponentName != "Alice" {
		t.Fatalf("names = %q vs %q", snap.PlayerName, snap.OpponentName)
	}
}

func TestSweepTurnTimeout(t *testing.T) {
	r := playingRoom(t)

	// Just inside the timeout: nothing happens.
	boundary := t0.Add(testTimings.TurnTimeout)
	r.Touch(Slot1, boundary)
	r.Touch(Slot2, boundary)
	res := r.Sweep(boundary)
	if res.Action != SweepNone {
		t.Fatalf("action = %v, want none at the boundary", res.Action)
	}

	// Keep both players alive but past the turn deadline.
	late := t0.Add(testTimings.TurnTimeout + time.Second)
	r.Touch(Slot1, late)
	r.Touch(Slot2, late)
	res = r.Sweep(late)
	if res.Action != SweepTurnSwapped {
		t.Fatalf("action = %v, want turn swap", res.Action)
	}

	// It is Bob's turn now.
	if _, err := r.Attack(Slot1, 0, 0, late); err == nil {
		t.Fatalf("attack by timed-out player accepted")
	}
	if _, err := r.Attack(Slot2, 0, 0, late); err != nil {
		t.Fatalf("attack by new turn holder: %v", err)
	}
}

func TestSweepPauseAndReconnect(t *testing.T) {
	r := playingRoom(t)

	// Bob goes quiet; Alice keeps polling.
	quiet := t0.Add(testTimings.InactivityTimeout + time.Second)
	r.Touch(Slot1, quiet)
	res := r.Sweep(quiet)
	if res.Action != SweepPaused {
		t.Fatalf("action = %v, want pause", res.Action)
	}
	if got := r.Phase(); got != PhasePaused {
		t.Fatalf("phase = %v, want paused", got)
	}

	// Attacks are rejected while paused.
	_, err := r.Attack(Slot1, 0, 0, quiet)
	assertCode(t, err, CodeForbidden)

	// The status line counts the reconnect window down.
	snap, err := r.PlayerSnapshot(Slot1, quiet.Add(10*time.Second))
	if err != nil {
		t.Fatalf("PlayerSnapshot: %v", err)
	}
	if !strings.Contains(snap.StatusMessage, "Game Paused. Waiting 50 seconds") {
		t.Fatalf("status = %q", snap.StatusMessage)
	}

	// Bob comes back inside the window; play resumes with a fresh turn.
	back := quiet.Add(30 * time.Second)
	jr, err := r.Join("Bob", back)
	if err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if !jr.Reconnected || jr.Slot != Slot2 {
		t.Fatalf("reconnect result = %+v", jr)
	}
	if got := r.Phase(); got != PhasePlaying {
		t.Fatalf("phase = %v, want playing after reconnect", got)
	}
}

func TestSweepPauseExpiryForfeits(t *testing.T) {
	r := playingRoom(t)

	quiet := t0.Add(testTimings.InactivityTimeout + time.Second)
	r.Touch(Slot1, quiet)
	if res := r.Sweep(quiet); res.Action != SweepPaused {
		t.Fatalf("want pause, got %v", res.Action)
	}

	expired := quiet.Add(testTimings.ReconnectWindow + time.Second)
	res := r.Sweep(expired)
	if res.Action != SweepForfeited {
		t.Fatalf("action = %v, want forfeit", res.Action)
	}
	if res.Winner != "Alice" || res.Loser != "Bob" {
		t.Fatalf("forfeit result = %+v", res)
	}
	if got := r.Phase(); got != PhaseOver {
		t.Fatalf("phase = %v, want over", got)
	}

	// Reaped after the terminal grace.
	if res := r.Sweep(expired.Add(testTimings.TerminalGrace + time.Second)); res.Action != SweepReap {
		t.Fatalf("action = %v, want reap", res.Action)
	}
}

func TestSweepAbandonedLobby(t *testing.T) {
	r := NewHosted("room1", "Alice", testTimings, t0)

	gone := t0.Add(testTimings.ReconnectWindow + time.Second)
	res := r.Sweep(gone)
	if res.Action != SweepAbandoned {
		t.Fatalf("action = %v, want abandoned", res.Action)
	}
	if got := r.Phase(); got != PhaseOver {
		t.Fatalf("phase = %v, want over", got)
	}
}

func TestSpectatorSnapshotUnmasked(t *testing.T) {
	r := NewPaired("room1", "Carol", "Dave", testTimings, t0)
	if err := r.PlaceShips(Slot1, fullFleet(), t0); err != nil {
		t.Fatalf("PlaceShips: %v", err)
	}
	if err := r.PlaceShips(Slot2, fullFleet(), t0); err != nil {
		t.Fatalf("PlaceShips: %v", err)
	}

	snap := r.SpectatorSnapshot(t0)
	if snap.Player1Name != "Carol" || snap.Player2Name != "Dave" {
		t.Fatalf("names = %+v", snap)
	}
	// Both fleets are fully visible to spectators.
	if snap.Player1Board[0][0] != "A" || snap.Player2Board[0][0] != "A" {
		t.Fatalf("spectator boards masked: %q %q", snap.Player1Board[0][0], snap.Player2Board[0][0])
	}
}
