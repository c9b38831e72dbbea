package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"energy-forecast/src/helpers"
	"energy-forecast/src/pipeline"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

// statusForError maps pipeline failures to HTTP status codes.
func statusForError(err error) int {
	var malformed *helpers.MalformedRowError
	var transport *helpers.TransportError

	switch {
	case errors.Is(err, helpers.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.As(err, &malformed):
		return http.StatusUnprocessableEntity
	case errors.As(err, &transport):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// -----------------------------------------------------------------------------

// selectionFromQuery reads ?date=&region=, falling back to the configured
// region and today's date.
func (s *FastAPIServer) selectionFromQuery(c *gin.Context) pipeline.Selection {
	sel := pipeline.Selection{
		Date:   strings.TrimSpace(c.Query("date")),
		Region: strings.TrimSpace(c.Query("region")),
	}
	if sel.Region == "" {
		sel.Region = s.Config.DefaultRegion
	}
	if sel.Date == "" {
		sel.Date = s.today()
	}
	return sel
}

func (s *FastAPIServer) today() string {
	return nowIn(s.Location).Format("2006-01-02")
}

// -----------------------------------------------------------------------------

func errorJSON(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}
