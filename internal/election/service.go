package election

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 选举模块的哨兵错误
var (
	ErrElectionNotFound  = errors.New("找不到该选举")
	ErrInvalidSchedule   = errors.New("开始时间必须早于结束时间")
	ErrInvalidTransition = errors.New("不允许的状态流转")
)

// Service 封装了选举和候选人的查询与管理逻辑。
type Service struct {
	db *gorm.DB
}

// NewService 创建一个选举服务。
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List 返回所有选举，可按状态过滤，按创建时间倒序。
func (s *Service) List(statusFilter string) ([]Election, error) {
	query := s.db.Order("created_at DESC")
	if statusFilter != "" {
		query = query.Where("status = ?", statusFilter)
	}

	var elections []Election
	if err := query.Find(&elections).Error; err != nil {
		return nil, fmt.Errorf("查询选举列表失败: %w", err)
	}
	return elections, nil
}

// GetByID 按主键查询选举。
func (s *Service) GetByID(id string) (*Election, error) {
	var e Election
	if err := s.db.First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrElectionNotFound
		}
		return nil, fmt.Errorf("查询选举失败: %w", err)
	}
	return &e, nil
}

// ListCandidates 返回一个选举的所有候选人，按展示顺序和名称排序。
// electionID为空时返回所有候选人。
func (s *Service) ListCandidates(electionID string) ([]Candidate, error) {
	query := s.db.Order("display_order ASC, name ASC")
	if electionID != "" {
		query = query.Where("election_id = ?", electionID)
	}

	var candidates []Candidate
	if err := query.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("查询候选人列表失败: %w", err)
	}
	return candidates, nil
}

// CreateElectionInput 是创建选举的输入参数。
type CreateElectionInput struct {
	Title         string
	Description   string
	StartDate     time.Time
	EndDate       time.Time
	ResultsPublic bool
}

// CreateElection 创建一个新的draft状态的选举。
// 创建时即校验时间窗口的合法性。
func (s *Service) CreateElection(input CreateElectionInput) (*Election, error) {
	if !input.StartDate.Before(input.EndDate) {
		return nil, ErrInvalidSchedule
	}

	newUUID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("无法生成UUID v7: %w", err)
	}

	e := Election{
		ID:            newUUID.String(),
		Title:         input.Title,
		Description:   input.Description,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		Status:        StatusDraft,
		ResultsPublic: input.ResultsPublic,
	}
	if err := s.db.Create(&e).Error; err != nil {
		return nil, fmt.Errorf("无法创建选举: %w", err)
	}
	return &e, nil
}

// UpdateStatus 推进选举的生命周期状态。
// 只允许向前流转: draft→active、active→closed。closed是终态。
func (s *Service) UpdateStatus(id string, next Status) (*Election, error) {
	e, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	allowed := (e.Status == StatusDraft && next == StatusActive) ||
		(e.Status == StatusActive && next == StatusClosed)
	if !allowed {
		return nil, ErrInvalidTransition
	}

	if err := s.db.Model(e).Update("status", next).Error; err != nil {
		return nil, fmt.Errorf("无法更新选举状态: %w", err)
	}
	e.Status = next
	return e, nil
}

// CreateCandidateInput 是添加候选人的输入参数。
type CreateCandidateInput struct {
	Name         string
	Description  string
	PhotoURL     string
	PartyGroup   string
	DisplayOrder int
}

// CreateCandidate 为一个选举添加候选人。
func (s *Service) CreateCandidate(electionID string, input CreateCandidateInput) (*Candidate, error) {
	// 先确认选举存在，保证外键错误不会以500的形式泄露出去
	if _, err := s.GetByID(electionID); err != nil {
		return nil, err
	}

	newUUID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("无法生成UUID v7: %w", err)
	}

	cand := Candidate{
		ID:           newUUID.String(),
		ElectionID:   electionID,
		Name:         input.Name,
		Description:  input.Description,
		PhotoURL:     input.PhotoURL,
		PartyGroup:   input.PartyGroup,
		DisplayOrder: input.DisplayOrder,
	}
	if err := s.db.Create(&cand).Error; err != nil {
		return nil, fmt.Errorf("无法创建候选人: %w", err)
	}
	return &cand, nil
}

// Migrate 负责自动迁移选举和候选人表结构。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Election{}, &Candidate{}); err != nil {
		return fmt.Errorf("无法迁移election相关表: %w", err)
	}
	fmt.Println("Election数据库表迁移成功。")
	return nil
}
