// Package game implements the per-room Battleship state machine: player
// slots, phase transitions, turn control and tailored snapshots. A Room
// guards all of its state with a single mutex; every exported method is
// safe for concurrent use.
package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/broadside-gg/broadside/internal/battle"
)

// Phase is the coarse lifecycle state of a room.
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhasePlacing Phase = "placing"
	PhasePlaying Phase = "playing"
	PhasePaused  Phase = "paused"
	PhaseOver    Phase = "over"
)

// Terminal reports whether the phase admits no further play.
func (p Phase) Terminal() bool { return p == PhaseOver }

// Slot identifies a player position within a room. The zero value means
// "no slot".
type Slot int

const (
	SlotNone Slot = 0
	Slot1    Slot = 1
	Slot2    Slot = 2
)

// Valid reports whether s is a real player slot.
func (s Slot) Valid() bool { return s == Slot1 || s == Slot2 }

// Other returns the opposing slot.
func (s Slot) Other() Slot {
	if s == Slot1 {
		return Slot2
	}
	return Slot1
}

// Timings are the time-driven transition thresholds for a room. They are
// fixed at room creation from server configuration.
type Timings struct {
	TurnTimeout       time.Duration
	InactivityTimeout time.Duration
	ReconnectWindow   time.Duration
	TerminalGrace     time.Duration
}

// ShipPlacement is the wire-format descriptor of one placed ship. The raw
// list a player submitted is echoed back in snapshots so a reconnecting
// client can rebuild its own overlay without replaying history.
type ShipPlacement struct {
	Name        string `json:"name"`
	StartRow    int    `json:"start_row"`
	StartCol    int    `json:"start_col"`
	Orientation string `json:"orientation"`
}

// player is the per-slot state. A nil player means the slot is unoccupied.
type player struct {
	name         string
	connected    bool
	lastActivity time.Time
	shipsPlaced  bool
	placements   []ShipPlacement
	board        *battle.Board
	ships        battle.Registry
	sunk         []string // this player's ships that have been sunk
}

// Room is a two-slot game session.
type Room struct {
	mu sync.Mutex

	id         string
	quickMatch bool
	timings    Timings
	createdAt  time.Time

	phase        Phase
	players      [2]*player // index 0 holds Slot1
	turn         Slot
	turnStart    time.Time
	pauseStart   time.Time
	disconnected Slot
	winner       string
	gameEnd      time.Time
	status       string
	moves        int
}

func newPlayer(name string, now time.Time) *player {
	return &player{
		name:         name,
		connected:    true,
		lastActivity: now,
		board:        battle.NewBoard(),
		ships:        battle.Registry{},
	}
}

// NewHosted creates a room in the lobby phase with the host seated as slot 1.
func NewHosted(id, hostName string, timings Timings, now time.Time) *Room {
	r := &Room{
		id:        id,
		timings:   timings,
		createdAt: now,
		phase:     PhaseLobby,
		turn:      Slot1,
		status:    "Waiting for opponent to join...",
	}
	r.players[0] = newPlayer(hostName, now)
	return r
}

// NewPaired creates a quick-match room with both players seated, already in
// the placing phase.
func NewPaired(id, name1, name2 string, timings Timings, now time.Time) *Room {
	r := &Room{
		id:         id,
		quickMatch: true,
		timings:    timings,
		createdAt:  now,
		phase:      PhasePlacing,
		turn:       Slot1,
		status:     "Match found! Place your ships.",
	}
	r.players[0] = newPlayer(name1, now)
	r.players[1] = newPlayer(name2, now)
	return r
}

// ID returns the room's opaque identifier.
func (r *Room) ID() string { return r.id }

// QuickMatch reports whether the room was created by the matchmaker.
func (r *Room) QuickMatch() bool { return r.quickMatch }

// Phase returns the current phase.
func (r *Room) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// slot returns the player seated at s, or nil.
func (r *Room) slot(s Slot) *player {
	if !s.Valid() {
		return nil
	}
	return r.players[s-1]
}

// slotOf returns the slot whose occupant has the given name.
func (r *Room) slotOf(name string) Slot {
	for i, p := range r.players {
		if p != nil && p.name == name {
			return Slot(i + 1)
		}
	}
	return SlotNone
}

// SlotOf returns the slot seated under the given name, if any.
func (r *Room) SlotOf(name string) Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slotOf(name)
}

// Names returns the display names of slot 1 and slot 2 ("" if unoccupied).
func (r *Room) Names() (string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n1, n2 string
	if r.players[0] != nil {
		n1 = r.players[0].name
	}
	if r.players[1] != nil {
		n2 = r.players[1].name
	}
	return n1, n2
}

// Status returns the current human-readable status line.
func (r *Room) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusLine(time.Now())
}

// JoinResult is the outcome of a successful Join.
type JoinResult struct {
	Slot        Slot
	Reconnected bool
}

// Join seats a new player or reconnects an existing one, per the
// consolidated join/reconnect contract: a join whose name matches an
// occupied slot is a reconnection attempt.
func (r *Room) Join(name string, now time.Time) (JoinResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s := r.slotOf(name); s.Valid() {
		return r.reconnect(s, now)
	}

	if r.players[0] != nil && r.players[1] != nil {
		return JoinResult{}, ErrForbidden("Game is full")
	}
	if r.phase != PhaseLobby {
		// Only a lobby accepts a second seat; every other phase with a
		// free slot is a room being torn down.
		return JoinResult{}, ErrForbidden("Game is not accepting players")
	}

	r.players[1] = newPlayer(name, now)
	r.phase = PhasePlacing
	r.status = fmt.Sprintf("%s has joined! Place your ships.", name)
	return JoinResult{Slot: Slot2}, nil
}

// reconnect restores a disconnected player. Caller holds the lock.
func (r *Room) reconnect(s Slot, now time.Time) (JoinResult, error) {
	p := r.slot(s)
	if p.connected {
		return JoinResult{}, ErrForbidden("Player is already connected to this game.")
	}

	p.connected = true
	p.lastActivity = now

	if r.phase == PhasePaused && r.disconnected == s {
		r.phase = PhasePlaying
		r.pauseStart = time.Time{}
		r.disconnected = SlotNone
		// The returning player gets a fresh full turn regardless of
		// whose move it is.
		r.turnStart = now
		r.status = fmt.Sprintf("%s reconnected. It's %s's turn.", p.name, r.nameOf(r.turn))
	} else if r.phase == PhasePlaying {
		r.turnStart = now
		r.status = fmt.Sprintf("%s reconnected. It's %s's turn.", p.name, r.nameOf(r.turn))
	}

	return JoinResult{Slot: s, Reconnected: true}, nil
}

func (r *Room) nameOf(s Slot) string {
	if p := r.slot(s); p != nil {
		return p.name
	}
	return ""
}

// PlaceShips atomically replaces the slot's board and registry from the
// descriptor list. The full fleet must be placed, each ship exactly once.
func (r *Room) PlaceShips(s Slot, placements []ShipPlacement, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhasePlacing {
		return ErrForbidden("Not in ship placement phase")
	}
	p := r.slot(s)
	if p == nil {
		return ErrInvalid("unknown player number")
	}

	board := battle.NewBoard()
	reg := battle.Registry{}
	for _, sp := range placements {
		length, ok := battle.ShipLength(sp.Name)
		if !ok {
			return ErrInvalid(fmt.Sprintf("unknown ship %q", sp.Name))
		}
		if _, dup := reg[sp.Name]; dup {
			return ErrInvalid(fmt.Sprintf("ship %q placed twice", sp.Name))
		}
		orient, ok := battle.ParseOrientation(sp.Orientation)
		if !ok {
			return ErrInvalid(fmt.Sprintf("invalid orientation %q", sp.Orientation))
		}
		if !battle.Place(board, reg, sp.Name, length, sp.StartRow, sp.StartCol, orient) {
			return ErrForbidden(fmt.Sprintf("invalid placement for %s", sp.Name))
		}
	}
	if len(reg) != len(battle.Fleet) {
		return ErrForbidden("fleet incomplete")
	}

	p.board = board
	p.ships = reg
	p.sunk = nil
	p.shipsPlaced = true
	p.placements = placements
	p.lastActivity = now

	if r.players[0] != nil && r.players[1] != nil &&
		r.players[0].shipsPlaced && r.players[1].shipsPlaced {
		r.phase = PhasePlaying
		r.turn = Slot1
		r.turnStart = now
		r.status = fmt.Sprintf("Game on! It's %s's turn.", r.players[0].name)
	}
	return nil
}

// AttackResult is the outcome of an accepted attack.
type AttackResult struct {
	Outcome  battle.Outcome
	GameOver bool
	Winner   string
}

// Attack resolves a shot by slot s against the opponent's board. Only the
// slot whose turn it is may attack, and only while playing. The turn swaps
// on every resolved attack; invalid and already-attacked outcomes leave
// the turn with the attacker.
func (r *Room) Attack(s Slot, row, col int, now time.Time) (AttackResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhasePlaying || s != r.turn {
		return AttackResult{}, ErrForbidden("Not your turn or game not active")
	}
	attacker := r.slot(s)
	defender := r.slot(s.Other())
	if attacker == nil || defender == nil {
		return AttackResult{}, ErrForbidden("Not your turn or game not active")
	}
	attacker.lastActivity = now

	out := battle.Attack(defender.board, defender.ships, row, col)
	if out.Resolved() {
		r.moves++
	}
	if out.Kind == battle.OutcomeSunk {
		r.recordSunk(defender, out.Ship)
	}

	if battle.IsOver(defender.ships) {
		r.phase = PhaseOver
		r.winner = attacker.name
		r.gameEnd = now
		r.status = fmt.Sprintf("Game Over! %s wins!", attacker.name)
		return AttackResult{Outcome: out, GameOver: true, Winner: attacker.name}, nil
	}

	if out.Resolved() {
		r.turn = s.Other()
		r.turnStart = now
		r.status = fmt.Sprintf("It's %s's turn.", defender.name)
	}
	return AttackResult{Outcome: out}, nil
}

func (r *Room) recordSunk(p *player, ship string) {
	for _, s := range p.sunk {
		if s == ship {
			return
		}
	}
	p.sunk = append(p.sunk, ship)
}

// Touch refreshes the last-activity timestamp of the given slot.
func (r *Room) Touch(s Slot, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.slot(s); p != nil {
		p.lastActivity = now
	}
}

// SweepAction describes a time-driven transition taken during a sweep.
type SweepAction int

const (
	SweepNone SweepAction = iota
	SweepTurnSwapped
	SweepPaused
	SweepForfeited
	SweepAbandoned
	SweepReap
)

// SweepResult reports what the housekeeper did to the room this cycle.
type SweepResult struct {
	Action  SweepAction
	Winner  string // set for SweepForfeited
	Loser   string
	Player1 string
	Player2 string
	Moves   int
	Started time.Time
	Ended   time.Time
}

// Sweep advances all time-driven transitions for one housekeeper cycle:
// turn timeout, inactivity pause, reconnect-window expiry and terminal
// grace. At most one transition fires per cycle.
func (r *Room) Sweep(now time.Time) SweepResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.phase {
	case PhaseLobby, PhasePlacing:
		// A room nobody is polling anymore has been walked away from.
		abandoned := true
		for _, p := range r.players {
			if p != nil && now.Sub(p.lastActivity) <= r.timings.ReconnectWindow {
				abandoned = false
			}
		}
		if abandoned {
			r.phase = PhaseOver
			r.gameEnd = now
			r.status = "Game abandoned."
			return SweepResult{Action: SweepAbandoned}
		}
	case PhasePlaying:
		if now.Sub(r.turnStart) > r.timings.TurnTimeout {
			timedOut := r.nameOf(r.turn)
			r.turn = r.turn.Other()
			r.turnStart = now
			r.status = fmt.Sprintf("%s's turn timed out. It's now %s's turn.", timedOut, r.nameOf(r.turn))
			return SweepResult{Action: SweepTurnSwapped}
		}
		for i, p := range r.players {
			if p == nil || !p.connected {
				continue
			}
			if now.Sub(p.lastActivity) > r.timings.InactivityTimeout {
				p.connected = false
				r.phase = PhasePaused
				r.pauseStart = now
				r.disconnected = Slot(i + 1)
				return SweepResult{Action: SweepPaused}
			}
		}
	case PhasePaused:
		if now.Sub(r.pauseStart) > r.timings.ReconnectWindow {
			loser := r.slot(r.disconnected)
			winner := r.slot(r.disconnected.Other())
			r.phase = PhaseOver
			r.winner = winner.name
			r.gameEnd = now
			r.pauseStart = time.Time{}
			r.disconnected = SlotNone
			r.status = fmt.Sprintf("Game Over! %s wins!", winner.name)
			n1, n2 := "", ""
			if r.players[0] != nil {
				n1 = r.players[0].name
			}
			if r.players[1] != nil {
				n2 = r.players[1].name
			}
			return SweepResult{
				Action:  SweepForfeited,
				Winner:  winner.name,
				Loser:   loser.name,
				Player1: n1,
				Player2: n2,
				Moves:   r.moves,
				Started: r.createdAt,
				Ended:   now,
			}
		}
	case PhaseOver:
		if now.Sub(r.gameEnd) > r.timings.TerminalGrace {
			return SweepResult{Action: SweepReap}
		}
	}
	return SweepResult{Action: SweepNone}
}

// Summary captures the terminal facts of a finished game for archiving.
type Summary struct {
	RoomID     string
	Player1    string
	Player2    string
	Winner     string
	QuickMatch bool
	Moves      int
	Started    time.Time
	Ended      time.Time
}

// Summarize returns the archive record for the room. Meaningful only once
// the room is terminal.
func (r *Room) Summarize() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	n1, n2 := "", ""
	if r.players[0] != nil {
		n1 = r.players[0].name
	}
	if r.players[1] != nil {
		n2 = r.players[1].name
	}
	return Summary{
		RoomID:     r.id,
		Player1:    n1,
		Player2:    n2,
		Winner:     r.winner,
		QuickMatch: r.quickMatch,
		Moves:      r.moves,
		Started:    r.createdAt,
		Ended:      r.gameEnd,
	}
}
