package result

import (
	"errors"
	"net/http"

	"github.com/SlpAus/anon-voting-backend/internal/election"
	"github.com/gin-gonic/gin"
)

// Handler 持有计票相关API所需的依赖。
type Handler struct {
	svc *Service
}

// NewHandler 创建一个计票API处理器。
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetResults 处理 GET /api/results/:id
// 对draft和active的选举返回实时结果，对closed的选举返回最终结果。
func (h *Handler) GetResults(c *gin.Context) {
	results, err := h.svc.ComputeResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, election.ErrElectionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "ELECTION_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "计票失败"})
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetHistory 处理 GET /api/history
func (h *Handler) GetHistory(c *gin.Context) {
	history, err := h.svc.History(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取历史记录失败"})
		return
	}

	c.JSON(http.StatusOK, history)
}
