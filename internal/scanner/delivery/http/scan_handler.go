package http

import (
	"net/http"

	"reddit-lead-scout/internal/scanner/dto"
	"reddit-lead-scout/internal/scanner/service"
	"reddit-lead-scout/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ScanHandler handles HTTP requests for on-demand scans and digests.
type ScanHandler struct {
	scanService   service.ScanService
	digestService service.DigestService
	logger        *logger.Logger
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(scanService service.ScanService, digestService service.DigestService, logger *logger.Logger) *ScanHandler {
	return &ScanHandler{scanService: scanService, digestService: digestService, logger: logger}
}

// RegisterRoutes registers the scan routes to the Echo group.
func (h *ScanHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/scans", h.TriggerScan)
	g.POST("/digests", h.TriggerDigest)
}

// TriggerScan runs a scan synchronously and returns its summary. The request
// body is optional; an empty body scans the full registry with configured
// defaults.
func (h *ScanHandler) TriggerScan(c echo.Context) error {
	var req dto.ScanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	summary, err := h.scanService.Scan(c.Request().Context(), req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, summary)
}

// TriggerDigest sends the digest immediately.
func (h *ScanHandler) TriggerDigest(c echo.Context) error {
	digest, err := h.digestService.Send(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, digest)
}
