package vote

import (
	"errors"
	"net/http"

	"github.com/SlpAus/anon-voting-backend/internal/election"
	"github.com/SlpAus/anon-voting-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// Handler 持有投票相关API所需的依赖。
type Handler struct {
	ledger *Ledger
}

// NewHandler 创建一个投票API处理器。
func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// CastVoteRequestBody 定义了投票请求体的JSON结构
type CastVoteRequestBody struct {
	ElectionID  string `json:"election_id" binding:"required"`
	CandidateID string `json:"candidate_id" binding:"required"`
}

// SubmitVote 处理 POST /api/vote
// 每一类校验失败都映射到稳定的机器可读code，方便前端区分处理。
func (h *Handler) SubmitVote(c *gin.Context) {
	var body CastVoteRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error(), "code": "VALIDATION_FAILED"})
		return
	}

	voterID := c.GetString(user.UserIDKey)

	receipt, err := h.ledger.CastVote(c.Request.Context(), voterID, body.ElectionID, body.CandidateID)
	if err != nil {
		switch {
		case errors.Is(err, election.ErrElectionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "ELECTION_NOT_FOUND"})
		case errors.Is(err, ErrCandidateNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "CANDIDATE_NOT_FOUND"})
		case errors.Is(err, ErrCandidateNotInElection):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "CANDIDATE_NOT_IN_ELECTION"})
		case errors.Is(err, election.ErrElectionNotActive):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "ELECTION_NOT_ACTIVE"})
		case errors.Is(err, election.ErrVotingNotStarted):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VOTING_NOT_STARTED"})
		case errors.Is(err, election.ErrVotingEnded):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VOTING_ENDED"})
		case errors.Is(err, ErrAlreadyVoted):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "ALREADY_VOTED"})
		default:
			// 事务中途的任何意外失败都已经完整回滚，不存在部分写入
			c.JSON(http.StatusInternalServerError, gin.H{"error": "处理投票失败: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

// HasVoted 处理 GET /api/has-voted/:id
func (h *Handler) HasVoted(c *gin.Context) {
	userID := c.GetString(user.UserIDKey)

	info, err := h.ledger.HasVoted(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, election.ErrElectionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "ELECTION_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询投票状态失败"})
		return
	}

	c.JSON(http.StatusOK, info)
}
