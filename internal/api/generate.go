package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orgball2608/viralink-scheduler/internal/domain"
)

type TextResponse struct {
	Text string `json:"text"`
}

func (h *Handler) HandleGenerateText(c *gin.Context) {
	var prompt domain.Prompt
	if err := c.ShouldBindJSON(&prompt); err != nil {
		h.writeBadRequest(c, err)
		return
	}

	text, err := h.Gateway.GenerateText(c.Request.Context(), prompt)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TextResponse{Text: text})
}

func (h *Handler) HandleGenerateImage(c *gin.Context) {
	var prompt domain.Prompt
	if err := c.ShouldBindJSON(&prompt); err != nil {
		h.writeBadRequest(c, err)
		return
	}

	media, err := h.Gateway.GenerateImage(c.Request.Context(), prompt)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, media)
}
