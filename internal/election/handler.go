package election

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler 持有选举相关API所需的依赖。
type Handler struct {
	svc *Service
}

// NewHandler 创建一个选举API处理器。
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ElectionResponse 在持久化模型之外附加了派生的is_active字段
type ElectionResponse struct {
	Election
	IsActive bool `json:"is_active"`
}

func formatElection(e Election, now time.Time) ElectionResponse {
	return ElectionResponse{Election: e, IsActive: e.IsActive(now)}
}

// ListElections 处理 GET /api/elections?status=
func (h *Handler) ListElections(c *gin.Context) {
	elections, err := h.svc.List(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取选举列表失败"})
		return
	}

	now := time.Now()
	responses := make([]ElectionResponse, 0, len(elections))
	for _, e := range elections {
		responses = append(responses, formatElection(e, now))
	}
	c.JSON(http.StatusOK, responses)
}

// GetElection 处理 GET /api/elections/:id，附带候选人列表
func (h *Handler) GetElection(c *gin.Context) {
	e, err := h.svc.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrElectionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "ELECTION_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取选举失败"})
		return
	}

	candidates, err := h.svc.ListCandidates(e.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取候选人列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"election":   formatElection(*e, time.Now()),
		"candidates": candidates,
	})
}

// ListCandidates 处理 GET /api/candidates?election=
func (h *Handler) ListCandidates(c *gin.Context) {
	candidates, err := h.svc.ListCandidates(c.Query("election"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取候选人列表失败"})
		return
	}
	c.JSON(http.StatusOK, candidates)
}

// CreateElectionRequestBody 定义了创建选举请求体的JSON结构
type CreateElectionRequestBody struct {
	Title         string    `json:"title" binding:"required"`
	Description   string    `json:"description"`
	StartDate     time.Time `json:"start_date" binding:"required"`
	EndDate       time.Time `json:"end_date" binding:"required"`
	ResultsPublic *bool     `json:"results_public"`
}

// CreateElection 处理 POST /api/elections (仅管理员)
func (h *Handler) CreateElection(c *gin.Context) {
	var body CreateElectionRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error(), "code": "VALIDATION_FAILED"})
		return
	}

	resultsPublic := true
	if body.ResultsPublic != nil {
		resultsPublic = *body.ResultsPublic
	}

	e, err := h.svc.CreateElection(CreateElectionInput{
		Title:         body.Title,
		Description:   body.Description,
		StartDate:     body.StartDate,
		EndDate:       body.EndDate,
		ResultsPublic: resultsPublic,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidSchedule) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_SCHEDULE"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建选举失败"})
		return
	}

	c.JSON(http.StatusCreated, formatElection(*e, time.Now()))
}

// UpdateStatusRequestBody 定义了状态流转请求体的JSON结构
type UpdateStatusRequestBody struct {
	Status Status `json:"status" binding:"required"`
}

// UpdateStatus 处理 PUT /api/elections/:id/status (仅管理员)
func (h *Handler) UpdateStatus(c *gin.Context) {
	var body UpdateStatusRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error(), "code": "VALIDATION_FAILED"})
		return
	}

	e, err := h.svc.UpdateStatus(c.Param("id"), body.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrElectionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "ELECTION_NOT_FOUND"})
		case errors.Is(err, ErrInvalidTransition):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "INVALID_TRANSITION"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新选举状态失败"})
		}
		return
	}

	c.JSON(http.StatusOK, formatElection(*e, time.Now()))
}

// CreateCandidateRequestBody 定义了添加候选人请求体的JSON结构
type CreateCandidateRequestBody struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	PhotoURL     string `json:"photo_url"`
	PartyGroup   string `json:"party_group"`
	DisplayOrder int    `json:"display_order"`
}

// CreateCandidate 处理 POST /api/elections/:id/candidates (仅管理员)
func (h *Handler) CreateCandidate(c *gin.Context) {
	var body CreateCandidateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error(), "code": "VALIDATION_FAILED"})
		return
	}

	cand, err := h.svc.CreateCandidate(c.Param("id"), CreateCandidateInput{
		Name:         body.Name,
		Description:  body.Description,
		PhotoURL:     body.PhotoURL,
		PartyGroup:   body.PartyGroup,
		DisplayOrder: body.DisplayOrder,
	})
	if err != nil {
		if errors.Is(err, ErrElectionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "ELECTION_NOT_FOUND"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建候选人失败"})
		return
	}

	c.JSON(http.StatusCreated, cand)
}
