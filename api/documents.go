package api

import (
	"net/http"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/service/deletion"
	"github.com/Domenick1991/itinerary/internal/service/documents"
	"github.com/gin-gonic/gin"
)

type DocumentHandler struct {
	documents documents.DocumentUseCase
	deletions deletion.DeletionUseCase
}

func NewDocumentHandler(docs documents.DocumentUseCase, d deletion.DeletionUseCase) *DocumentHandler {
	return &DocumentHandler{documents: docs, deletions: d}
}

func (h *DocumentHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id", h.get)
	router.GET("/:id/content", h.content)
	router.POST("/:id/delete", h.delete)
}

func (h *DocumentHandler) get(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) content(c *gin.Context) {
	doc, data, err := h.documents.Content(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.Name+`"`)
	c.Data(http.StatusOK, doc.ContentType, data)
}

func (h *DocumentHandler) delete(c *gin.Context) {
	requestDeletion(c, h.deletions, domain.EntityDocument, c.Param("id"))
}
