package session

import (
	"log"
	"sync"
	"time"

	"github.com/broadside-gg/broadside/internal/game"
	"github.com/broadside-gg/broadside/internal/scanloop"
)

// Housekeeper periodically sweeps every live room, advancing the
// time-driven transitions (turn timeout, inactivity pause, reconnect
// expiry, terminal reaping) and expiring stale matchmaking entries.
type Housekeeper struct {
	reg      *Registry
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// test hook: called at the beginning of each sweep.
	sweepHook func()
}

// NewHousekeeper creates a housekeeper for the registry.
func NewHousekeeper(reg *Registry) *Housekeeper {
	return &Housekeeper{
		reg:    reg,
		stopCh: make(chan struct{}),
	}
}

// Start launches the sweep loop at the configured cadence (1 Hz default).
func (h *Housekeeper) Start() {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		scanloop.Run(h.stopCh, h.reg.cfg.SweepInterval, 0, h.Sweep)
	}()
}

// Stop terminates the sweep loop and waits for an in-flight sweep.
func (h *Housekeeper) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
	h.wg.Wait()
}

// Sweep runs one housekeeping cycle. Exported for tests and for callers
// that drive the clock themselves.
func (h *Housekeeper) Sweep() {
	if h.sweepHook != nil {
		h.sweepHook()
	}
	now := h.reg.now()

	var reap []string
	h.reg.rooms.Range(func(id string, r *game.Room) bool {
		if due := h.sweepRoom(id, r, now); due {
			reap = append(reap, id)
		}
		return true
	})

	for _, id := range reap {
		h.reg.reap(id, "expired")
		log.Printf("[housekeeper] reaped room %s", id)
	}

	for _, name := range h.reg.expireQueue(now) {
		log.Printf("[housekeeper] dropped %s from quick-match queue (timeout)", name)
	}
}

// sweepRoom advances one room and reports whether it is due for reaping.
// A panic in one room is contained so the rest of the sweep continues.
func (h *Housekeeper) sweepRoom(id string, r *game.Room, now time.Time) (reapDue bool) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[housekeeper] room %s: recovered from panic: %v", id, rec)
		}
	}()

	res := r.Sweep(now)
	switch res.Action {
	case game.SweepTurnSwapped:
		log.Printf("[housekeeper] room %s: turn timed out, turn swapped", id)
	case game.SweepPaused:
		log.Printf("[housekeeper] room %s: player inactive, game paused", id)
	case game.SweepForfeited:
		log.Printf("[housekeeper] room %s: reconnect window elapsed, %s wins by forfeit", id, res.Winner)
		if h.reg.history != nil {
			h.reg.history.Record(r.Summarize(), ReasonForfeit)
		}
	case game.SweepAbandoned:
		log.Printf("[housekeeper] room %s: abandoned", id)
		if h.reg.history != nil {
			h.reg.history.Record(r.Summarize(), ReasonAbandoned)
		}
	case game.SweepReap:
		return true
	}
	return false
}
