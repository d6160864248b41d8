package httpapi

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"nodue/internal/faculty"
	"nodue/internal/student"
)

// respondError maps domain errors to the wire envelope. Anything unmapped is
// a store failure: logged server-side, surfaced as a bare 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, student.ErrValidation):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, student.ErrDuplicateUSN), errors.Is(err, student.ErrDuplicateEmail):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, student.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, student.ErrBadCredentials):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, student.ErrInvalidStatus), errors.Is(err, student.ErrFileRequired):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, faculty.ErrBadCapability):
		fail(c, http.StatusUnauthorized, err.Error())
	default:
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		fail(c, http.StatusInternalServerError, "server error")
	}
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "message": message})
}
