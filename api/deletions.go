package api

import (
	"net/http"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/service/deletion"
	"github.com/gin-gonic/gin"
)

type DeletionHandler struct {
	service deletion.DeletionUseCase
}

type deletionResponse struct {
	Token     string `json:"token"`
	Kind      string `json:"kind"`
	EntityID  string `json:"entity_id"`
	State     string `json:"state"`
	ExpiresAt string `json:"expires_at"`
}

func NewDeletionHandler(service deletion.DeletionUseCase) *DeletionHandler {
	return &DeletionHandler{service: service}
}

func (h *DeletionHandler) Register(router *gin.RouterGroup) {
	router.POST("/:token/confirm", h.confirm)
	router.POST("/:token/cancel", h.cancel)
}

func (h *DeletionHandler) confirm(c *gin.Context) {
	req, err := h.service.Confirm(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDeletionResponse(req))
}

func (h *DeletionHandler) cancel(c *gin.Context) {
	req, err := h.service.Cancel(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDeletionResponse(req))
}

// requestDeletion opens a pending deletion; the entity stays until the token is confirmed.
func requestDeletion(c *gin.Context, service deletion.DeletionUseCase, kind domain.EntityKind, id string) {
	req, err := service.Request(c.Request.Context(), kind, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, toDeletionResponse(req))
}

func toDeletionResponse(req *domain.DeletionRequest) deletionResponse {
	return deletionResponse{
		Token:     req.Token,
		Kind:      string(req.Kind),
		EntityID:  req.EntityID,
		State:     string(req.State),
		ExpiresAt: req.ExpiresAt.Format(timeLayout),
	}
}
