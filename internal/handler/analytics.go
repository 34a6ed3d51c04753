package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workspace-booking/internal/analytics"
	"github.com/iliyamo/workspace-booking/internal/model"
)

// AnalyticsHandler exposes the read-only availability and utilization
// queries.  Both endpoints sit behind the response cache middleware.
type AnalyticsHandler struct {
	Analytics *analytics.Service
}

func NewAnalyticsHandler(svc *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{Analytics: svc}
}

// FreeSlots handles GET /v1/rooms/:id/free-slots?date=YYYY-MM-DD.
// Without a date parameter the current day is used.
func (h *AnalyticsHandler) FreeSlots(c echo.Context) error {
	day := time.Now().UTC()
	if s := c.QueryParam("date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
		}
		day = d
	}
	slots, err := h.Analytics.FreeSlots(c.Request().Context(), c.Param("id"), day)
	if err != nil {
		return writeEngineError(c, err)
	}
	if slots == nil {
		slots = []model.Interval{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_id": c.Param("id"),
		"date":    day.Format("2006-01-02"),
		"slots":   slots,
	})
}

// Utilization handles GET /v1/analytics/utilization with query
// parameters room_id (a room id or "all"), from, to (RFC3339) and
// confirmed_only (boolean).
func (h *AnalyticsHandler) Utilization(c echo.Context) error {
	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from, want RFC3339"})
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to, want RFC3339"})
	}
	window := model.Interval{Start: from.UTC(), End: to.UTC()}
	confirmedOnly := c.QueryParam("confirmed_only") == "true"

	roomID := c.QueryParam("room_id")
	ctx := c.Request().Context()
	if roomID == "" || roomID == "all" {
		items, err := h.Analytics.UtilizationAll(ctx, window, confirmedOnly)
		if err != nil {
			return writeEngineError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	}
	sum, err := h.Analytics.Utilization(ctx, roomID, window, confirmedOnly)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}
