package election

import (
	"time"
)

// Status 定义了选举生命周期状态的枚举类型
type Status string

const (
	// StatusDraft 表示选举在筹备中，不接受投票
	StatusDraft Status = "draft"
	// StatusActive 表示选举已开放投票
	StatusActive Status = "active"
	// StatusClosed 表示选举已结束。关闭是终态，不允许重新开放
	StatusClosed Status = "closed"
)

// Election 定义了选举在数据库中的持久化模型。
type Election struct {
	// ID 是选举的主键，UUID字符串
	ID string `gorm:"primarykey;type:varchar(36)" json:"id"`

	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Description string `json:"description"`

	// StartDate / EndDate 界定投票窗口，边界两端均为闭区间
	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`

	// Status 是选举的生命周期状态: draft / active / closed
	Status Status `gorm:"type:varchar(10);default:draft;index" json:"status"`

	// ResultsPublic 标记结果是否对外公开展示（前端提示位）
	ResultsPublic bool `gorm:"default:true" json:"results_public"`

	CreatedAt time.Time `json:"created_at"`
}

// Candidate 定义了候选人在数据库中的持久化模型。
// 每个候选人属于且仅属于一个选举，选举删除时级联删除。
type Candidate struct {
	// ID 是候选人的主键，UUID字符串
	ID string `gorm:"primarykey;type:varchar(36)" json:"id"`

	// ElectionID 是所属选举的外键
	ElectionID string   `gorm:"type:varchar(36);index;not null" json:"election_id"`
	Election   Election `gorm:"foreignKey:ElectionID;constraint:OnDelete:CASCADE" json:"-"`

	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Description string `json:"description"`
	PhotoURL    string `gorm:"type:varchar(500)" json:"photo_url"`
	PartyGroup  string `gorm:"type:varchar(255)" json:"party_group"`

	// DisplayOrder 决定候选人在列表中的展示顺序
	DisplayOrder int `gorm:"default:0" json:"display_order"`

	CreatedAt time.Time `json:"created_at"`
}
