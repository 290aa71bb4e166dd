package api

import (
	"io"
	"net/http"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/service/deletion"
	"github.com/Domenick1991/itinerary/internal/service/reservations"
	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	reservations reservations.ReservationUseCase
	deletions    deletion.DeletionUseCase
}

type editFieldRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

func NewReservationHandler(r reservations.ReservationUseCase, d deletion.DeletionUseCase) *ReservationHandler {
	return &ReservationHandler{reservations: r, deletions: d}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.edit)
	router.GET("/:id/documents", h.documents)
	router.POST("/:id/documents", h.addDocument)
	router.POST("/:id/delete", h.delete)
}

func (h *ReservationHandler) list(c *gin.Context) {
	list, err := h.reservations.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []domain.Reservation{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *ReservationHandler) get(c *gin.Context) {
	r, err := h.reservations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *ReservationHandler) edit(c *gin.Context) {
	var req editFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, err := h.reservations.EditField(c.Request.Context(), c.Param("id"), req.Field, req.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *ReservationHandler) documents(c *gin.Context) {
	list, err := h.reservations.Documents(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ReservationHandler) addDocument(c *gin.Context) {
	name, data, err := readUpload(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	doc, err := h.reservations.AddDocument(c.Request.Context(), c.Param("id"), name, data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *ReservationHandler) delete(c *gin.Context) {
	requestDeletion(c, h.deletions, domain.EntityReservation, c.Param("id"))
}

// readUpload reads the multipart "file" field.
func readUpload(c *gin.Context) (string, []byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}
	return fh.Filename, data, nil
}
