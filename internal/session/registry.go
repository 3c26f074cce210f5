// Package session owns the live rooms table and the matchmaking queue, and
// exposes the coordinator's request operations. Cross-room state (queue,
// pairing, name uniqueness) is guarded by the registry mutex; each room
// guards its own fields. Registry methods never hold both a room lock and
// the registry lock in reverse order.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/broadside-gg/broadside/internal/game"
)

// End reasons reported to the history sink.
const (
	ReasonAttackWin = "attack_win"
	ReasonForfeit   = "forfeit"
	ReasonAbandoned = "abandoned"
)

// HistorySink receives terminal game summaries. Implemented by
// history.Service; wired in main.
type HistorySink interface {
	Record(sum game.Summary, reason string)
}

// Config carries the coordinator's tunables.
type Config struct {
	Timings           game.Timings
	QuickMatchTimeout time.Duration
	SweepInterval     time.Duration
}

// Registry is the process-wide coordinator state: all live rooms, the
// matchmaking queue and the reaped-room tombstones.
type Registry struct {
	cfg     Config
	rooms   *xsync.Map[string, *game.Room]
	tombs   *Tombstones
	history HistorySink // may be nil

	qmu   sync.Mutex
	queue []queueEntry

	now func() time.Time // test hook
}

// NewRegistry creates an empty registry. sink may be nil when the match
// archive is disabled.
func NewRegistry(cfg Config, sink HistorySink) *Registry {
	return &Registry{
		cfg:     cfg,
		rooms:   xsync.NewMap[string, *game.Room](),
		tombs:   NewTombstones(defaultTombstoneCapacity, defaultTombstoneTTL),
		history: sink,
		now:     time.Now,
	}
}

// newRoomID returns an 8-character opaque room id.
func newRoomID() string {
	return uuid.NewString()[:8]
}

// room resolves a room id, distinguishing expired rooms from unknown ones.
func (reg *Registry) room(id string) (*game.Room, error) {
	if r, ok := reg.rooms.Load(id); ok {
		return r, nil
	}
	if _, gone := reg.tombs.Reason(id); gone {
		return nil, game.ErrNotFound("Game has expired")
	}
	return nil, game.ErrNotFound("Game not found")
}

// Host creates a private room with the caller seated as slot 1.
func (reg *Registry) Host(name string) (string, game.Slot, error) {
	if name == "" {
		return "", game.SlotNone, game.ErrInvalid("Player name is required")
	}
	now := reg.now()
	id := newRoomID()
	for {
		if _, exists := reg.rooms.Load(id); !exists {
			break
		}
		id = newRoomID()
	}
	reg.rooms.Store(id, game.NewHosted(id, name, reg.cfg.Timings, now))
	return id, game.Slot1, nil
}

// Join seats a player into a room, or reconnects a returning one.
func (reg *Registry) Join(roomID, name string) (game.JoinResult, error) {
	if name == "" {
		return game.JoinResult{}, game.ErrInvalid("Player name is required")
	}
	r, err := reg.room(roomID)
	if err != nil {
		return game.JoinResult{}, err
	}
	return r.Join(name, reg.now())
}

// PlaceShips installs a player's fleet.
func (reg *Registry) PlaceShips(roomID string, slot game.Slot, placements []game.ShipPlacement) error {
	if !slot.Valid() {
		return game.ErrInvalid("Player number is required")
	}
	r, err := reg.room(roomID)
	if err != nil {
		return err
	}
	return r.PlaceShips(slot, placements, reg.now())
}

// Attack resolves a shot and archives the game when it ends.
func (reg *Registry) Attack(roomID string, slot game.Slot, row, col int) (game.AttackResult, error) {
	if !slot.Valid() {
		return game.AttackResult{}, game.ErrInvalid("Player number is required")
	}
	r, err := reg.room(roomID)
	if err != nil {
		return game.AttackResult{}, err
	}
	res, err := r.Attack(slot, row, col, reg.now())
	if err != nil {
		return game.AttackResult{}, err
	}
	if res.GameOver && reg.history != nil {
		reg.history.Record(r.Summarize(), ReasonAttackWin)
	}
	return res, nil
}

// State returns a player's snapshot and refreshes their activity clock.
func (reg *Registry) State(roomID string, slot game.Slot) (*game.PlayerSnapshot, error) {
	if !slot.Valid() {
		return nil, game.ErrInvalid("Player number is required")
	}
	r, err := reg.room(roomID)
	if err != nil {
		return nil, err
	}
	return r.PlayerSnapshot(slot, reg.now())
}

// Spectate validates that a room can be observed. Spectators keep no
// server-side state; entry is allowed only for quick matches still in play.
func (reg *Registry) Spectate(roomID string) error {
	r, err := reg.room(roomID)
	if err != nil {
		return err
	}
	if !r.QuickMatch() {
		return game.ErrForbidden("Only quick matches can be spectated")
	}
	if r.Phase().Terminal() {
		return game.ErrForbidden("Game is already over")
	}
	return nil
}

// SpectatorState returns the unmasked view of a quick match. Unlike
// Spectate it tolerates a terminal phase so observers can see the final
// board before the room is reaped.
func (reg *Registry) SpectatorState(roomID string) (*game.SpectatorSnapshot, error) {
	r, err := reg.room(roomID)
	if err != nil {
		return nil, err
	}
	if !r.QuickMatch() {
		return nil, game.ErrForbidden("Only quick matches can be spectated")
	}
	return r.SpectatorSnapshot(reg.now()), nil
}

// MatchInfo is one row of the public quick-match listing.
type MatchInfo struct {
	GameID      string `json:"game_id"`
	Player1Name string `json:"player1_name"`
	Player2Name string `json:"player2_name"`
	Status      string `json:"status"`
}

// ListMatches returns all non-terminal quick-match rooms.
func (reg *Registry) ListMatches() []MatchInfo {
	out := []MatchInfo{}
	reg.rooms.Range(func(id string, r *game.Room) bool {
		if !r.QuickMatch() || r.Phase().Terminal() {
			return true
		}
		n1, n2 := r.Names()
		out = append(out, MatchInfo{
			GameID:      id,
			Player1Name: n1,
			Player2Name: n2,
			Status:      r.Status(),
		})
		return true
	})
	return out
}

// RoomCount returns the number of live rooms.
func (reg *Registry) RoomCount() int {
	return reg.rooms.Size()
}

// reap deletes a room and leaves a tombstone so later reads return a
// distinct "expired" answer instead of "not found".
func (reg *Registry) reap(id, reason string) {
	reg.rooms.Delete(id)
	reg.tombs.Add(id, reason)
}
