package api

import (
	"net/http"

	"github.com/broadside-gg/broadside/internal/session"
)

type matchmakingRequest struct {
	PlayerName string `json:"player_name"`
}

type matchmakingResponse struct {
	Matched      bool   `json:"matched"`
	Waiting      bool   `json:"waiting"`
	GameID       string `json:"game_id,omitempty"`
	PlayerNumber int    `json:"player_number,omitempty"`
	OpponentName string `json:"opponent_name,omitempty"`
}

func matchmakingResult(res session.MatchResult) matchmakingResponse {
	return matchmakingResponse{
		Matched:      res.Matched,
		Waiting:      res.Waiting,
		GameID:       res.GameID,
		PlayerNumber: int(res.Slot),
		OpponentName: res.Opponent,
	}
}

// HandleQuickMatch returns a handler for POST /api/quick_match.
func HandleQuickMatch(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req matchmakingRequest
		if err := DecodeBody(r, &req); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		res, err := reg.QuickMatch(req.PlayerName)
		if err != nil {
			writeGameError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, matchmakingResult(res))
	}
}

// HandleCancelQuickMatch returns a handler for POST /api/cancel_quick_match.
func HandleCancelQuickMatch(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req matchmakingRequest
		if err := DecodeBody(r, &req); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		if err := reg.CancelQuickMatch(req.PlayerName); err != nil {
			writeGameError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// HandleCheckQuickMatch returns a handler for POST /api/check_quick_match.
func HandleCheckQuickMatch(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req matchmakingRequest
		if err := DecodeBody(r, &req); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		res, err := reg.CheckQuickMatch(req.PlayerName)
		if err != nil {
			writeGameError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, matchmakingResult(res))
	}
}

type listMatchesResponse struct {
	Matches []session.MatchInfo `json:"matches"`
}

// HandleListQuickMatches returns a handler for GET /api/quick_matches.
func HandleListQuickMatches(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, listMatchesResponse{Matches: reg.ListMatches()})
	}
}

type spectateRequest struct {
	GameID string `json:"game_id"`
}

// HandleSpectate returns a handler for POST /api/spectate. Spectating is
// stateless; this only validates the room, after which the client polls
// gamestate with is_spectator=true.
func HandleSpectate(reg *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req spectateRequest
		if err := DecodeBody(r, &req); err != nil {
			writeDecodeBodyError(w, err)
			return
		}
		if req.GameID == "" {
			writeInvalidArgument(w, "game_id is required")
			return
		}
		if err := reg.Spectate(req.GameID); err != nil {
			writeGameError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
