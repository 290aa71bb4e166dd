package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/itinerary/internal/domain"
	"github.com/Domenick1991/itinerary/internal/service/imports"
	"github.com/gin-gonic/gin"
)

type ImportHandler struct {
	service imports.ImportUseCase
}

type barcodeRequest struct {
	Payload    string `json:"payload"`
	Target     string `json:"target"`
	AutoCommit bool   `json:"auto_commit"`
}

type onlineRequest struct {
	Vendor     string `json:"vendor" binding:"required"`
	Name       string `json:"name"`
	Reference  string `json:"reference"`
	Target     string `json:"target"`
	AutoCommit bool   `json:"auto_commit"`
}

type selectRequest struct {
	Selected bool `json:"selected"`
}

type commitRequest struct {
	Target string `json:"target"`
}

// importResponse carries the staged session, or the commit result when the import was committed right away.
type importResponse struct {
	Session   *domain.ImportSession `json:"session"`
	Committed bool                  `json:"committed"`
	Result    *imports.CommitResult `json:"result,omitempty"`
}

func NewImportHandler(service imports.ImportUseCase) *ImportHandler {
	return &ImportHandler{service: service}
}

func (h *ImportHandler) Register(router *gin.RouterGroup) {
	router.POST("/file", h.importFile)
	router.POST("/barcode", h.importBarcode)
	router.POST("/online", h.importOnline)
	router.POST("/online/check", h.checkOnline)
	router.GET("/:session", h.get)
	router.PUT("/:session/candidates", h.selectAll)
	router.PUT("/:session/candidates/:candidate", h.setSelected)
	router.POST("/:session/commit", h.commit)
	router.DELETE("/:session", h.discard)
}

func (h *ImportHandler) importFile(c *gin.Context) {
	name, data, err := readUpload(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	autoCommit, _ := strconv.ParseBool(c.PostForm("auto_commit"))
	session, err := h.service.ImportFile(c.Request.Context(), data, name, imports.WithTarget(c.PostForm("target")))
	h.staged(c, session, autoCommit, err)
}

func (h *ImportHandler) importBarcode(c *gin.Context) {
	var req barcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, err := h.service.ImportBarcode(c.Request.Context(), req.Payload, imports.WithTarget(req.Target))
	h.staged(c, session, req.AutoCommit, err)
}

func (h *ImportHandler) importOnline(c *gin.Context) {
	var req onlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, err := h.service.ImportOnline(c.Request.Context(), req.Vendor, req.Name, req.Reference, imports.WithTarget(req.Target))
	h.staged(c, session, req.AutoCommit, err)
}

func (h *ImportHandler) staged(c *gin.Context, session *domain.ImportSession, autoCommit bool, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	if !autoCommit {
		c.JSON(http.StatusCreated, importResponse{Session: session})
		return
	}
	result, committed, err := h.service.AutoCommit(c.Request.Context(), session)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, importResponse{Session: session, Committed: committed, Result: result})
}

func (h *ImportHandler) checkOnline(c *gin.Context) {
	var req onlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"can_search": h.service.CanSearch(req.Vendor, req.Name, req.Reference)})
}

func (h *ImportHandler) get(c *gin.Context) {
	session, err := h.service.GetSession(c.Request.Context(), c.Param("session"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *ImportHandler) selectAll(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, err := h.service.SelectAll(c.Request.Context(), c.Param("session"), req.Selected)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *ImportHandler) setSelected(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, err := h.service.SetSelected(c.Request.Context(), c.Param("session"), c.Param("candidate"), req.Selected)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *ImportHandler) commit(c *gin.Context) {
	var req commitRequest
	// an empty body commits to the preselected or automatic group
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	result, err := h.service.Commit(c.Request.Context(), c.Param("session"), req.Target)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) discard(c *gin.Context) {
	if err := h.service.Discard(c.Request.Context(), c.Param("session")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
