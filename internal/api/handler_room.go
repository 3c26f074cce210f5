package api

import (
	"net/http"

	"github.com/broadside-gg/broadside/internal/game"
	"github.com/broadside-gg/broadside/internal/session"
)

type hostRequest struct {
	PlayerName string `json:"player_name"`
}

type hostResponse struct {
	GameID       string `json:"game_id"`
	PlayerNumber int    `json:"player_number"`
}

// HandleHost returns a handler for POST /api/host.
func HandleHost(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req hostRequest
		if err := DecodeBody(r, &req); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		id, slot, err := reg.Host(req.PlayerName)
		if err != nil {
			writeGameError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, hostResponse{GameID: id, PlayerNumber: int(slot)})
	}
}

type joinRequest struct {
	PlayerName string `json:"player_name"`
	GameID     string `json:"game_id"`
}

type joinResponse struct {
	GameID       string `json:"game_id"`
	PlayerNumber int    `json:"player_number"`
	Reconnected  bool   `json:"reconnected,omitempty"`
}

// HandleJoin returns a handler for POST /api/join and POST /api/reconnect.
// A name already seated in the room reconnects instead of taking a new
// seat, so both routes run the same logic.
func HandleJoin(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req joinRequest
		if err := DecodeBody(r, &req); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		res, err := reg.Join(req.GameID, req.PlayerName)
		if err != nil {
			writeGameError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, joinResponse{
			GameID:       req.GameID,
			PlayerNumber: int(res.Slot),
			Reconnected:  res.Reconnected,
		})
	}
}

type placeShipsRequest struct {
	GameID       string               `json:"game_id"`
	PlayerNumber int                  `json:"player_number"`
	Ships        []game.ShipPlacement `json:"ships"`
}

// HandlePlaceShips returns a handler for POST /api/place_ships.
func HandlePlaceShips(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req placeShipsRequest
		if err := DecodeBody(r, &req); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		if err := reg.PlaceShips(req.GameID, game.Slot(req.PlayerNumber), req.Ships); err != nil {
			writeGameError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

type attackRequest struct {
	GameID       string `json:"game_id"`
	PlayerNumber int    `json:"player_number"`
	Row          int    `json:"row"`
	Col          int    `json:"col"`
}

type attackResponse struct {
	Result   string `json:"result"`
	GameOver bool   `json:"game_over"`
	Winner   string `json:"winner,omitempty"`
}

// HandleAttack returns a handler for POST /api/attack. The result string
// is the outcome as shown to players ("Miss", "Hit", "Hit and sunk
// Cruiser!", "Invalid coordinates", "Already attacked").
func HandleAttack(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attackRequest
		if err := DecodeBody(r, &req); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		res, err := reg.Attack(req.GameID, game.Slot(req.PlayerNumber), req.Row, req.Col)
		if err != nil {
			writeGameError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, attackResponse{
			Result:   res.Outcome.String(),
			GameOver: res.GameOver,
			Winner:   res.Winner,
		})
	}
}

// HandleGameState returns a handler for GET /api/gamestate. Players get a
// masked snapshot keyed by game_id and player_number; is_spectator=true
// returns the unmasked observer view instead.
func HandleGameState(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gameID := q.Get("game_id")
		if gameID == "" {
			writeInvalidArgument(w, "game_id is required")
			return
		}

		if q.Get("is_spectator") == "true" {
			snap, err := reg.SpectatorState(gameID)
			if err != nil {
				writeGameError(w, err)
				return
			}
			WriteJSON(w, http.StatusOK, snap)
			return
		}

		pn := q.Get("player_number")
		if pn == "" {
			writeInvalidArgument(w, "player_number is required")
			return
		}
		slot := game.SlotNone
		switch pn {
		case "1":
			slot = game.Slot1
		case "2":
			slot = game.Slot2
		default:
			writeInvalidArgument(w, "player_number: must be 1 or 2")
			return
		}

		snap, err := reg.State(gameID, slot)
		if err != nil {
			writeGameError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, snap)
	}
}
