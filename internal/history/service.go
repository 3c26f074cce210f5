package history

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/broadside-gg/broadside/internal/game"
)

// Service is the async match archive writer. Record performs a
// non-blocking channel send (drops on overflow); a background goroutine
// flushes batches to the Repo, and a cron entry prunes old rows.
type Service struct {
	repo      *Repo
	queue     chan Match
	batchSize int
	interval  time.Duration
	retain    time.Duration

	cron   *cron.Cron
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// ServiceConfig configures the archive service.
type ServiceConfig struct {
	Repo          *Repo
	QueueSize     int
	FlushBatch    int
	FlushInterval time.Duration
	Retain        time.Duration
	PruneSchedule string // standard cron expression
}

// NewService creates a match archive service.
func NewService(cfg ServiceConfig) *Service {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1024
	}
	batchSize := cfg.FlushBatch
	if batchSize <= 0 {
		batchSize = 256
	}
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	retain := cfg.Retain
	if retain <= 0 {
		retain = 30 * 24 * time.Hour
	}

	s := &Service{
		repo:      cfg.Repo,
		queue:     make(chan Match, queueSize),
		batchSize: batchSize,
		interval:  interval,
		retain:    retain,
		cron:      cron.New(),
		stopCh:    make(chan struct{}),
	}

	schedule := cfg.PruneSchedule
	if schedule == "" {
		schedule = "0 4 * * *"
	}
	if _, err := s.cron.AddFunc(schedule, s.prune); err != nil {
		log.Printf("[history] invalid prune schedule %q: %v", schedule, err)
	}
	return s
}

// Start launches the flush goroutine and the prune scheduler.
func (s *Service) Start() {
	s.wg.Add(1)
	go s.flushLoop()
	s.cron.Start()
}

// Stop drains the queue, flushes what remains and stops the scheduler.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	close(s.stopCh)
	s.wg.Wait()
}

// Record archives a finished game. Implements session.HistorySink.
// Non-blocking; drops on overflow rather than stalling a request.
func (s *Service) Record(sum game.Summary, reason string) {
	m := Match{
		ID:         uuid.NewString(),
		RoomID:     sum.RoomID,
		Player1:    sum.Player1,
		Player2:    sum.Player2,
		Winner:     sum.Winner,
		QuickMatch: sum.QuickMatch,
		EndReason:  reason,
		Moves:      sum.Moves,
		StartedAt:  sum.Started,
		EndedAt:    sum.Ended,
	}
	select {
	case s.queue <- m:
	default:
		log.Printf("[history] queue full, dropping record for room %s", sum.RoomID)
	}
}

// Recent returns the most recently archived matches, newest first.
func (s *Service) Recent(limit int) ([]Match, error) {
	return s.repo.Recent(limit)
}

func (s *Service) flushLoop() {
	defer s.wg.Done()

	batch := make([]Match, 0, s.batchSize)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case m := <-s.queue:
			batch = append(batch, m)
			if len(batch) >= s.batchSize {
				s.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = batch[:0]
			}

		case <-s.stopCh:
			s.drainAndFlush(batch)
			return
		}
	}
}

func (s *Service) drainAndFlush(batch []Match) {
	for {
		select {
		case m := <-s.queue:
			batch = append(batch, m)
			if len(batch) >= s.batchSize {
				s.flush(batch)
				batch = batch[:0]
			}
		default:
			if len(batch) > 0 {
				s.flush(batch)
			}
			return
		}
	}
}

func (s *Service) flush(batch []Match) {
	if _, err := s.repo.InsertBatch(batch); err != nil {
		log.Printf("[history] flush failed: %v", err)
	}
}

func (s *Service) prune() {
	cutoff := time.Now().Add(-s.retain)
	n, err := s.repo.PruneOlderThan(cutoff)
	if err != nil {
		log.Printf("[history] prune failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[history] pruned %d archived matches older than %s", n, cutoff.UTC().Format(time.RFC3339))
	}
}
