package api

import (
	"net/http"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/service/deletion"
	"github.com/Domenick1991/itinerary/internal/service/reservations"
	"github.com/Domenick1991/itinerary/internal/service/trips"
	"github.com/gin-gonic/gin"
)

type TripHandler struct {
	trips        trips.TripUseCase
	reservations reservations.ReservationUseCase
	deletions    deletion.DeletionUseCase
}

type tripNameRequest struct {
	Name string `json:"name"`
}

type assignRequest struct {
	ReservationIDs []string `json:"reservation_ids"`
}

type tripResponse struct {
	Group        *domain.TripGroup    `json:"group"`
	Reservations []domain.Reservation `json:"reservations"`
}

func NewTripHandler(t trips.TripUseCase, r reservations.ReservationUseCase, d deletion.DeletionUseCase) *TripHandler {
	return &TripHandler{trips: t, reservations: r, deletions: d}
}

func (h *TripHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.rename)
	router.POST("/:id/events", h.addEvent)
	router.POST("/:id/reservations", h.assign)
	router.POST("/:id/delete", h.delete)
}

func (h *TripHandler) list(c *gin.Context) {
	groups, err := h.trips.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *TripHandler) create(c *gin.Context) {
	var req tripNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	g, err := h.trips.CreateGroup(c.Request.Context(), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *TripHandler) get(c *gin.Context) {
	ctx := c.Request.Context()
	g, err := h.trips.Get(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	members, err := h.reservations.ListByGroup(ctx, g.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tripResponse{Group: g, Reservations: members})
}

func (h *TripHandler) rename(c *gin.Context) {
	var req tripNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	g, err := h.trips.RenameGroup(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *TripHandler) addEvent(c *gin.Context) {
	var req trips.EventInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.trips.AddEvent(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *TripHandler) assign(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	g, err := h.trips.AssignToGroup(c.Request.Context(), c.Param("id"), "", req.ReservationIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *TripHandler) delete(c *gin.Context) {
	requestDeletion(c, h.deletions, domain.EntityTripGroup, c.Param("id"))
}
