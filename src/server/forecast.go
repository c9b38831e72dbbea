package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"energy-forecast/src/export"

	"github.com/gin-gonic/gin"
)

const maxProxyBody = 64 * 1024

// noDataHeader marks proxied answers where upstream had nothing for the selection.
const noDataHeader = "X-No-Data"

var nowIn = func(loc *time.Location) time.Time { return time.Now().In(loc) }

var filenameUnsafe = strings.NewReplacer(`"`, "", "\\", "", "/", "", "\r", "", "\n", "")

// -----------------------------------------------------------------------------

// handleProxy answers POST /data.php from the cache or upstream.
func (s *FastAPIServer) handleProxy(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxProxyBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.Logger.Debug("Reading proxy request body failed: %v", err)
		c.String(http.StatusBadRequest, "reading request body failed")
		return
	}

	resp, err := s.Proxy.Handle(c.Request.Context(), body)
	if err != nil {
		s.Logger.Warning("Proxy request failed: %v", err)
		c.String(http.StatusBadGateway, err.Error())
		return
	}

	maxAge := s.Config.Cache.MaxAgeSeconds
	if maxAge <= 0 {
		maxAge = 24 * 60 * 60
	}
	c.Header("Cache-Control", "private, max-age="+strconv.Itoa(maxAge))
	if resp.Hit {
		c.Header("X-Cache", resp.Key)
	}
	if resp.Rejection != nil {
		s.Logger.Info("Upstream rejected %s: %v", resp.Key, resp.Rejection)
		c.Header(noDataHeader, "true")
	}
	c.Data(http.StatusOK, "text/csv", resp.Body)
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getForecast(c *gin.Context) {
	sel := s.selectionFromQuery(c)

	set, err := s.Forecasts.Run(c.Request.Context(), sel)
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) getForecastXLSX(c *gin.Context) {
	sel := s.selectionFromQuery(c)

	set, err := s.Forecasts.Run(c.Request.Context(), sel)
	if err != nil {
		errorJSON(c, err)
		return
	}

	data, err := export.BuildForecastXLSX(set)
	if err != nil {
		s.Logger.Error("XLSX export for %s failed: %v", sel, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="forecast-%s-%s.xlsx"`, filenameUnsafe.Replace(sel.Date), filenameUnsafe.Replace(sel.Region)))
	c.Data(http.StatusOK, export.ContentType, data)
}
