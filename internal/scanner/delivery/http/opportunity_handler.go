package http

import (
	"errors"
	"net/http"
	"strconv"

	"reddit-lead-scout/internal/entity"
	"reddit-lead-scout/internal/scanner/repository"
	"reddit-lead-scout/pkg/logger"

	"github.com/labstack/echo/v4"
)

const defaultListLimit = 50

// OpportunityHandler handles HTTP requests for browsing opportunities.
type OpportunityHandler struct {
	oppRepo repository.OpportunityRepository
	logger  *logger.Logger
}

// NewOpportunityHandler creates a new OpportunityHandler.
func NewOpportunityHandler(oppRepo repository.OpportunityRepository, logger *logger.Logger) *OpportunityHandler {
	return &OpportunityHandler{oppRepo: oppRepo, logger: logger}
}

// RegisterRoutes registers the opportunity routes to the Echo group.
func (h *OpportunityHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/opportunities", h.ListOpportunities)
	g.GET("/opportunities/:id", h.GetOpportunityByID)
}

// ListOpportunities lists opportunities, optionally filtered by status.
func (h *OpportunityHandler) ListOpportunities(c echo.Context) error {
	limit := defaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		limit = parsed
	}

	var (
		opps []entity.Opportunity
		err  error
	)
	if raw := c.QueryParam("status"); raw != "" {
		status := entity.Status(raw)
		if !status.IsValid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid status"})
		}
		opps, err = h.oppRepo.FindByStatus(c.Request().Context(), status, limit)
	} else {
		opps, err = h.oppRepo.FindRecent(c.Request().Context(), limit)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"data": opps, "count": len(opps)})
}

// GetOpportunityByID returns one opportunity with its responses.
func (h *OpportunityHandler) GetOpportunityByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid opportunity ID"})
	}

	opp, err := h.oppRepo.FindByID(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Opportunity not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, opp)
}
