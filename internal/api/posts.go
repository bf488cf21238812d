package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orgball2608/viralink-scheduler/internal/domain"
)

func (h *Handler) HandleListPosts(c *gin.Context) {
	c.JSON(http.StatusOK, h.Posts.List(c.Request.Context()))
}

func (h *Handler) HandleGetPost(c *gin.Context) {
	p, err := h.Posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) HandleCreatePost(c *gin.Context) {
	var in domain.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeBadRequest(c, err)
		return
	}

	p, err := h.Posts.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) HandleUpdatePost(c *gin.Context) {
	var patch domain.PostPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.writeBadRequest(c, err)
		return
	}

	p, err := h.Posts.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) HandleDeletePost(c *gin.Context) {
	if err := h.Posts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) HandleQueue(c *gin.Context) {
	c.JSON(http.StatusOK, h.Posts.QueueEntries())
}
