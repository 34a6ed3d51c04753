package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/workspace-booking/internal/booking"
	"github.com/iliyamo/workspace-booking/internal/model"
	"github.com/iliyamo/workspace-booking/internal/repository"
)

// RoomHandler exposes room management.  Create, update and delete are
// admin-only; routing applies the role middleware.
type RoomHandler struct {
	Rooms *repository.RoomRepo
}

func NewRoomHandler(rooms *repository.RoomRepo) *RoomHandler {
	return &RoomHandler{Rooms: rooms}
}

type roomReq struct {
	Name     string `json:"name"`
	Capacity uint32 `json:"capacity"`
	IsActive *bool  `json:"is_active"`
}

// Create handles POST /v1/rooms.
func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	rm := &model.Room{Name: req.Name, Capacity: req.Capacity}
	if err := h.Rooms.Create(c.Request().Context(), rm); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
	}
	return c.JSON(http.StatusCreated, rm)
}

// List handles GET /v1/rooms.
func (h *RoomHandler) List(c echo.Context) error {
	rooms, err := h.Rooms.ListRooms(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rooms failed"})
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rooms})
}

// Get handles GET /v1/rooms/:id.
func (h *RoomHandler) Get(c echo.Context) error {
	rm, err := h.Rooms.GetRoom(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, booking.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch room failed"})
	}
	return c.JSON(http.StatusOK, rm)
}

// Update handles PATCH /v1/rooms/:id.  Only capacity, name and the
// active flag can change.
func (h *RoomHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	rm, err := h.Rooms.GetRoom(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, booking.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "fetch room failed"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name != "" {
		rm.Name = req.Name
	}
	if req.Capacity != 0 {
		rm.Capacity = req.Capacity
	}
	if req.IsActive != nil {
		rm.IsActive = *req.IsActive
	}
	if err := h.Rooms.Update(ctx, rm); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
	}
	return c.JSON(http.StatusOK, rm)
}

// Delete handles DELETE /v1/rooms/:id.  Rooms with active reservations
// cannot be removed.
func (h *RoomHandler) Delete(c echo.Context) error {
	err := h.Rooms.Delete(c.Request().Context(), c.Param("id"))
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, booking.ErrRoomNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	case errors.Is(err, repository.ErrRoomInUse):
		return c.JSON(http.StatusConflict, echo.Map{"error": "room has active reservations"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete room failed"})
	}
}
