package session

import (
	"time"

	"github.com/broadside-gg/broadside/internal/game"
)

// queueEntry is one waiting player. Names are unique within the queue.
type queueEntry struct {
	name     string
	enqueued time.Time
}

// MatchResult is the answer to a quick-match or check request.
type MatchResult struct {
	Matched  bool
	Waiting  bool
	GameID   string
	Slot     game.Slot
	Opponent string
}

// QuickMatch pairs the caller with the head of the queue, creating a fresh
// room in the placing phase, or enqueues them when nobody is waiting. A
// name may appear at most once across the queue and all active quick
// matches.
func (reg *Registry) QuickMatch(name string) (MatchResult, error) {
	if name == "" {
		return MatchResult{}, game.ErrInvalid("Player name is required")
	}

	reg.qmu.Lock()
	defer reg.qmu.Unlock()

	if reg.queuedLocked(name) {
		return MatchResult{}, game.ErrConflict("Player is already waiting for a match")
	}
	if reg.activeQuickMatchRoom(name) != nil {
		return MatchResult{}, game.ErrConflict("Player is already in an active match")
	}

	now := reg.now()
	if len(reg.queue) == 0 {
		reg.queue = append(reg.queue, queueEntry{name: name, enqueued: now})
		return MatchResult{Waiting: true}, nil
	}

	head := reg.queue[0]
	reg.queue = reg.queue[1:]

	id := newRoomID()
	for {
		if _, exists := reg.rooms.Load(id); !exists {
			break
		}
		id = newRoomID()
	}
	reg.rooms.Store(id, game.NewPaired(id, head.name, name, reg.cfg.Timings, now))

	return MatchResult{
		Matched:  true,
		GameID:   id,
		Slot:     game.Slot2,
		Opponent: head.name,
	}, nil
}

// CancelQuickMatch removes the caller from the queue. A second cancel for
// the same name fails the same way and leaves the queue unchanged.
func (reg *Registry) CancelQuickMatch(name string) error {
	if name == "" {
		return game.ErrInvalid("Player name is required")
	}
	reg.qmu.Lock()
	defer reg.qmu.Unlock()

	for i, e := range reg.queue {
		if e.name == name {
			reg.queue = append(reg.queue[:i], reg.queue[i+1:]...)
			return nil
		}
	}
	return game.ErrNotFound("Player is not in the queue")
}

// CheckQuickMatch reports the caller's matchmaking status: still waiting,
// matched (with room and opponent), or absent from the pipeline.
func (reg *Registry) CheckQuickMatch(name string) (MatchResult, error) {
	if name == "" {
		return MatchResult{}, game.ErrInvalid("Player name is required")
	}
	reg.qmu.Lock()
	defer reg.qmu.Unlock()

	if reg.queuedLocked(name) {
		return MatchResult{Waiting: true}, nil
	}
	if r := reg.activeQuickMatchRoom(name); r != nil {
		slot := r.SlotOf(name)
		opp := r.SlotOf(name).Other()
		oppName := ""
		n1, n2 := r.Names()
		if opp == game.Slot1 {
			oppName = n1
		} else {
			oppName = n2
		}
		return MatchResult{
			Matched:  true,
			GameID:   r.ID(),
			Slot:     slot,
			Opponent: oppName,
		}, nil
	}
	return MatchResult{}, nil
}

// QueueLen returns the number of waiting players.
func (reg *Registry) QueueLen() int {
	reg.qmu.Lock()
	defer reg.qmu.Unlock()
	return len(reg.queue)
}

// queuedLocked reports whether name is waiting. Caller holds qmu.
func (reg *Registry) queuedLocked(name string) bool {
	for _, e := range reg.queue {
		if e.name == name {
			return true
		}
	}
	return false
}

// activeQuickMatchRoom finds the non-terminal quick-match room seating the
// given name, if any.
func (reg *Registry) activeQuickMatchRoom(name string) *game.Room {
	var found *game.Room
	reg.rooms.Range(func(_ string, r *game.Room) bool {
		if r.QuickMatch() && !r.Phase().Terminal() && r.SlotOf(name).Valid() {
			found = r
			return false
		}
		return true
	})
	return found
}

// expireQueue drops entries older than the quick-match timeout. Returns
// the names that were dropped.
func (reg *Registry) expireQueue(now time.Time) []string {
	reg.qmu.Lock()
	defer reg.qmu.Unlock()

	var dropped []string
	kept := reg.queue[:0]
	for _, e := range reg.queue {
		if now.Sub(e.enqueued) > reg.cfg.QuickMatchTimeout {
			dropped = append(dropped, e.name)
			continue
		}
		kept = append(kept, e)
	}
	reg.queue = kept
	return dropped
}
