package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workspace-booking/internal/booking"
	"github.com/iliyamo/workspace-booking/internal/model"
	"github.com/iliyamo/workspace-booking/internal/queue"
	"github.com/iliyamo/workspace-booking/internal/repository"
	queue_publisher "github.com/iliyamo/workspace-booking/internal/service"
)

// BookingHandler maps transport calls onto the booking engine.  The
// engine returns typed errors; translation into HTTP statuses happens
// here and nowhere below.
type BookingHandler struct {
	Service *booking.Service
	Repo    *repository.ReservationRepo

	// PublishEvents toggles best-effort RabbitMQ notifications.
	PublishEvents bool
}

func NewBookingHandler(svc *booking.Service, repo *repository.ReservationRepo, publish bool) *BookingHandler {
	return &BookingHandler{Service: svc, Repo: repo, PublishEvents: publish}
}

type createBookingReq struct {
	RoomID  string    `json:"room_id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Confirm bool      `json:"confirm"`
}

type rescheduleReq struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// writeEngineError translates engine errors to transport responses.
func writeEngineError(c echo.Context, err error) error {
	if ce, ok := booking.IsConflict(err); ok {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":           "interval conflicts with existing reservations",
			"conflicting_ids": ce.ReservationIDs,
		})
	}
	switch {
	case errors.Is(err, booking.ErrInvalidInterval):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid interval"})
	case errors.Is(err, booking.ErrRoomNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, booking.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
	case errors.Is(err, booking.ErrStoreUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable, retry later"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

func (h *BookingHandler) publish(eventType string, res *model.Reservation) {
	if !h.PublishEvents {
		return
	}
	ev := queue.ReservationEvent{
		Type:          eventType,
		ReservationID: res.ID,
		RoomID:        res.RoomID,
		RequesterID:   res.RequesterID,
		Start:         res.Interval.Start.Format(time.RFC3339),
		End:           res.Interval.End.Format(time.RFC3339),
		Status:        string(res.Status),
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = queue_publisher.PublishReservationEvent(ctx, ev) // best effort, already logged
}

// Create handles POST /v1/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.RoomID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id is required"})
	}
	iv := model.Interval{Start: req.Start.UTC(), End: req.End.UTC()}
	res, err := h.Service.Create(c.Request().Context(), req.RoomID, uid, iv, req.Confirm)
	if err != nil {
		return writeEngineError(c, err)
	}
	h.publish(queue.EventCreated, res)
	return c.JSON(http.StatusCreated, res)
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	res, err := h.Repo.GetReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListMine handles GET /v1/my-bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Repo.ListByRequester(c.Request().Context(), uid)
	if err != nil {
		return writeEngineError(c, err)
	}
	if items == nil {
		items = []model.Reservation{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Confirm handles POST /v1/bookings/:id/confirm.
func (h *BookingHandler) Confirm(c echo.Context) error {
	res, err := h.Service.Confirm(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeEngineError(c, err)
	}
	h.publish(queue.EventConfirmed, res)
	return c.JSON(http.StatusOK, res)
}

// Cancel handles POST /v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
	res, err := h.Service.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeEngineError(c, err)
	}
	h.publish(queue.EventCancelled, res)
	return c.JSON(http.StatusOK, res)
}

// Reschedule handles PATCH /v1/bookings/:id/schedule.
func (h *BookingHandler) Reschedule(c echo.Context) error {
	var req rescheduleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	iv := model.Interval{Start: req.Start.UTC(), End: req.End.UTC()}
	res, err := h.Service.Reschedule(c.Request().Context(), c.Param("id"), iv)
	if err != nil {
		return writeEngineError(c, err)
	}
	h.publish(queue.EventRescheduled, res)
	return c.JSON(http.StatusOK, res)
}
