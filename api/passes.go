package api

import (
	"net/http"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/service/deletion"
	"github.com/Domenick1991/itinerary/internal/service/passes"
	"github.com/gin-gonic/gin"
)

type PassHandler struct {
	passes    passes.PassUseCase
	deletions deletion.DeletionUseCase
}

func NewPassHandler(p passes.PassUseCase, d deletion.DeletionUseCase) *PassHandler {
	return &PassHandler{passes: p, deletions: d}
}

func (h *PassHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.update)
	router.POST("/:id/delete", h.delete)
}

// list returns all passes, or the single best match when ?match= is given.
func (h *PassHandler) list(c *gin.Context) {
	if query, ok := c.GetQuery("match"); ok {
		p, err := h.passes.FindMatching(c.Request.Context(), query)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
		return
	}

	list, err := h.passes.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PassHandler) create(c *gin.Context) {
	var req passes.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.passes.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *PassHandler) get(c *gin.Context) {
	p, err := h.passes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PassHandler) update(c *gin.Context) {
	var req passes.Input
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.passes.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PassHandler) delete(c *gin.Context) {
	requestDeletion(c, h.deletions, domain.EntityPass, c.Param("id"))
}
