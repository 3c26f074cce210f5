package api

import (
	"errors"
	"net/http"

	"github.com/broadside-gg/broadside/internal/game"
)

// writeGameError maps coordinator errors to HTTP response codes.
// Rule violations (not your turn, already connected, game full, wrong
// phase) are 403; double-submissions into the matchmaking pipeline are
// 409; unknown or expired rooms are 404.
func writeGameError(w http.ResponseWriter, err error) {
	if err == nil {
		WriteError(w, http.StatusInternalServerError, game.CodeInternal, "internal server error")
		return
	}

	var gerr *game.Error
	if errors.As(err, &gerr) {
		var status int
		switch gerr.Code {
		case game.CodeInvalidArgument:
			status = http.StatusBadRequest
		case game.CodeForbidden:
			status = http.StatusForbidden
		case game.CodeNotFound:
			status = http.StatusNotFound
		case game.CodeConflict:
			status = http.StatusConflict
		default:
			status = http.StatusInternalServerError
		}
		WriteError(w, status, gerr.Code, gerr.Message)
		return
	}
	WriteError(w, http.StatusInternalServerError, game.CodeInternal, "internal server error")
}

func writeInvalidArgument(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, game.CodeInvalidArgument, message)
}
