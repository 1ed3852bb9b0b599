// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tulong/internal/modules/donation"
	"tulong/internal/modules/request"
	"tulong/internal/modules/smartmatch"
	"tulong/internal/modules/volunteer"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeMatchError(c *gin.Context, err error) {
	switch err {
	case smartmatch.ErrBadRequest:
		writeError(c, http.StatusBadRequest, err.Error())
	case smartmatch.ErrNotFound, request.ErrNotFound, donation.ErrNotFound, volunteer.ErrNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	case smartmatch.ErrInvalidState, smartmatch.ErrActiveMatch, smartmatch.ErrConflict:
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
