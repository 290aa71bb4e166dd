package api

import (
	"context"
	"net/http"

	"github.com/Domenick1991/itinerary/internal/settings"
	"github.com/gin-gonic/gin"
)

type SettingsUseCase interface {
	Snapshot(ctx context.Context) (settings.Snapshot, error)
	Get(ctx context.Context, key settings.Key) (string, error)
	Set(ctx context.Context, key settings.Key, value string) error
	Toggle(ctx context.Context, key settings.Key) (bool, error)
}

type SettingsHandler struct {
	service SettingsUseCase
}

type settingRequest struct {
	Value string `json:"value"`
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func NewSettingsHandler(service SettingsUseCase) *SettingsHandler {
	return &SettingsHandler{service: service}
}

func (h *SettingsHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.snapshot)
	router.GET("/:key", h.get)
	router.PUT("/:key", h.set)
	router.POST("/:key/toggle", h.toggle)
}

func (h *SettingsHandler) snapshot(c *gin.Context) {
	snap, err := h.service.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *SettingsHandler) get(c *gin.Context) {
	key := settings.Key(c.Param("key"))
	value, err := h.service.Get(c.Request.Context(), key)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settingResponse{Key: string(key), Value: value})
}

// set persists immediately; there is no separate apply step.
func (h *SettingsHandler) set(c *gin.Context) {
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	key := settings.Key(c.Param("key"))
	if err := h.service.Set(ctx, key, req.Value); err != nil {
		writeError(c, err)
		return
	}
	value, err := h.service.Get(ctx, key)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, settingResponse{Key: string(key), Value: value})
}

func (h *SettingsHandler) toggle(c *gin.Context) {
	key := settings.Key(c.Param("key"))
	value, err := h.service.Toggle(c.Request.Context(), key)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}
