package api

import (
	"net/http"

	"github.com/Domenick1991/itinerary/internal/form"
	"github.com/gin-gonic/gin"
)

type FormHandler struct {
	forms *form.Validator
}

func NewFormHandler(forms *form.Validator) *FormHandler {
	return &FormHandler{forms: forms}
}

func (h *FormHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("/:form/check", h.check)
}

func (h *FormHandler) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"forms": form.Names()})
}

// check reports whether the form may be saved with the given values.
func (h *FormHandler) check(c *gin.Context) {
	values := map[string]string{}
	if err := c.ShouldBindJSON(&values); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.forms.CheckForm(c.Param("form"), values)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
