package game

import (
	"fmt"
	"time"

	"github.com/broadside-gg/broadside/internal/battle"
)

// PlayerSnapshot is the tailored view of a room returned to one player.
// Field names follow the wire contract.
type PlayerSnapshot struct {
	Type                  string          `json:"type"`
	GamePhase             Phase           `json:"game_phase"`
	YourTurn              bool            `json:"your_turn"`
	OwnBoard              [][]string      `json:"own_board"`
	OpponentBoard         [][]string      `json:"opponent_board"`
	PlayerName            string          `json:"player_name"`
	OpponentName          string          `json:"opponent_name"`
	CurrentTurnPlayerName string          `json:"current_turn_player_name"`
	StatusMessage         string          `json:"status_message"`
	GameOver              bool            `json:"game_over"`
	Winner                string          `json:"winner,omitempty"`
	TurnTimeRemaining     *float64        `json:"turn_time_remaining"`
	OpponentConnected     bool            `json:"opponent_connected"`
	OwnSunkShips          []string        `json:"own_sunk_ships"`
	OpponentSunkShips     []string        `json:"opponent_sunk_ships"`
	PlacedShips           []ShipPlacement `json:"placed_ships"`
}

// SpectatorSnapshot is the read-only full-detail view of a quick match.
type SpectatorSnapshot struct {
	Type                  string     `json:"type"`
	GamePhase             Phase      `json:"game_phase"`
	Player1Name           string     `json:"player1_name"`
	Player2Name           string     `json:"player2_name"`
	Player1Board          [][]string `json:"player1_board"`
	Player2Board          [][]string `json:"player2_board"`
	Player1SunkShips      []string   `json:"player1_sunk_ships"`
	Player2SunkShips      []string   `json:"player2_sunk_ships"`
	CurrentTurnPlayerName string     `json:"current_turn_player_name"`
	StatusMessage         string     `json:"status_message"`
	GameOver              bool       `json:"game_over"`
	Winner                string     `json:"winner,omitempty"`
}

// statusLine returns the live status string. While paused it is computed
// on read as a countdown over the reconnect window. Caller holds the lock.
func (r *Room) statusLine(now time.Time) string {
	if r.phase == PhasePaused {
		remaining := r.timings.ReconnectWindow - now.Sub(r.pauseStart)
		if remaining < 0 {
			remaining = 0
		}
		return fmt.Sprintf("Game Paused. Waiting %d seconds for the other player to reconnect.", int(remaining.Seconds()))
	}
	return r.status
}

// boardRows serializes a board as rows of single-character cells. When
// masked, un-hit ship cells are projected to empty: only misses and hits
// are visible.
func boardRows(b *battle.Board, masked bool) [][]string {
	rows := make([][]string, battle.BoardSize)
	for r := 0; r < battle.BoardSize; r++ {
		row := make([]string, battle.BoardSize)
		for c := 0; c < battle.BoardSize; c++ {
			cell := b[r][c]
			if masked && cell != battle.CellHit && cell != battle.CellMiss {
				cell = battle.CellEmpty
			}
			row[c] = string(cell)
		}
		rows[r] = row
	}
	return rows
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// PlayerSnapshot builds the view for slot s and refreshes its activity
// timestamp: polling for state is the liveness signal.
func (r *Room) PlayerSnapshot(s Slot, now time.Time) (*PlayerSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.slot(s)
	if p == nil {
		return nil, ErrInvalid("unknown player number")
	}
	p.lastActivity = now

	snap := &PlayerSnapshot{
		Type:                  "game_state",
		GamePhase:             r.phase,
		YourTurn:              r.phase == PhasePlaying && r.turn == s,
		OwnBoard:              boardRows(p.board, false),
		PlayerName:            p.name,
		CurrentTurnPlayerName: r.nameOf(r.turn),
		StatusMessage:         r.statusLine(now),
		GameOver:              r.phase == PhaseOver,
		Winner:                r.winner,
		OwnSunkShips:          emptyIfNil(p.sunk),
		OpponentSunkShips:     []string{},
		PlacedShips:           p.placements,
	}
	if snap.PlacedShips == nil {
		snap.PlacedShips = []ShipPlacement{}
	}

	if opp := r.slot(s.Other()); opp != nil {
		snap.OpponentBoard = boardRows(opp.board, true)
		snap.OpponentName = opp.name
		snap.OpponentConnected = opp.connected
		snap.OpponentSunkShips = emptyIfNil(opp.sunk)
	} else {
		snap.OpponentBoard = boardRows(battle.NewBoard(), true)
	}

	if r.phase == PhasePlaying {
		remaining := r.timings.TurnTimeout - now.Sub(r.turnStart)
		if remaining < 0 {
			remaining = 0
		}
		secs := remaining.Seconds()
		snap.TurnTimeRemaining = &secs
	}
	return snap, nil
}

// SpectatorSnapshot builds the unmasked observer view. The outcome of a
// game is observational for spectators; no cells are hidden.
func (r *Room) SpectatorSnapshot(now time.Time) *SpectatorSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := &SpectatorSnapshot{
		Type:                  "spectator_state",
		GamePhase:             r.phase,
		CurrentTurnPlayerName: r.nameOf(r.turn),
		StatusMessage:         r.statusLine(now),
		GameOver:              r.phase == PhaseOver,
		Winner:                r.winner,
		Player1Board:          boardRows(battle.NewBoard(), false),
		Player2Board:          boardRows(battle.NewBoard(), false),
		Player1SunkShips:      []string{},
		Player2SunkShips:      []string{},
	}
	if p := r.players[0]; p != nil {
		snap.Player1Name = p.name
		snap.Player1Board = boardRows(p.board, false)
		snap.Player1SunkShips = emptyIfNil(p.sunk)
	}
	if p := r.players[1]; p != nil {
		snap.Player2Name = p.name
		snap.Player2Board = boardRows(p.board, false)
		snap.Player2SunkShips = emptyIfNil(p.sunk)
	}
	return snap
}
