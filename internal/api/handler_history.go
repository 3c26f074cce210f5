package api

import (
	"net/http"

	"github.com/broadside-gg/broadside/internal/history"
)

type historyResponse struct {
	Matches []history.Match `json:"matches"`
}

// HandleHistory returns a handler for GET /api/history. svc may be nil
// when the match archive is disabled, in which case an empty list is
// served.
func HandleHistory(svc *history.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := parseLimitOrWriteInvalid(w, r, 50)
		if !ok {
			return
		}
		if svc == nil {
			WriteJSON(w, http.StatusOK, historyResponse{Matches: []history.Match{}})
			return
		}
		matches, err := svc.Recent(limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to read match history")
			return
		}
		if matches == nil {
			matches = []history.Match{}
		}
		WriteJSON(w, http.StatusOK, historyResponse{Matches: matches})
	}
}
