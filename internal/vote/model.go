package vote

import (
	"time"

	"github.com/SlpAus/anon-voting-backend/internal/election"
)

// Vote 定义了单张选票在数据库中的持久化模型。
//
// 关键不变量：选票不包含任何投票人字段。匿名性就建立在
// Vote 与 VoteRegistry 之间没有外键、没有任何关联这件事上。
// 选票一经写入即不可修改，常规操作也不提供删除路径。
type Vote struct {
	// ID 是选票的主键，UUID字符串。它不会出现在任何API响应中，
	// 以免被用来将选票回溯到某次投票请求。
	ID string `gorm:"primarykey;type:varchar(36)" json:"id"`

	// ElectionID 是选票所属选举的外键
	ElectionID string            `gorm:"type:varchar(36);index;not null" json:"election_id"`
	Election   election.Election `gorm:"foreignKey:ElectionID;constraint:OnDelete:CASCADE" json:"-"`

	// CandidateID 是被投候选人的外键
	CandidateID string             `gorm:"type:varchar(36);index;not null" json:"candidate_id"`
	Candidate   election.Candidate `gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE" json:"-"`

	// CastAt 是选票的写入时间
	CastAt time.Time `gorm:"not null" json:"cast_at"`
}

// Registry 定义了防重复投票的登记表模型（对应vote_registry表）。
//
// 每个(用户, 选举)对最多存在一行——这条复合唯一索引是防止重复投票的
// 唯一机制。它只记录某人在某场选举中投过票这一事实，
// 与具体投了哪张选票在逻辑上完全解耦。
type Registry struct {
	// ID 是登记行的主键，UUID字符串
	ID string `gorm:"primarykey;type:varchar(36)" json:"id"`

	// UserID + ElectionID 构成复合唯一索引
	UserID     string `gorm:"type:varchar(36);uniqueIndex:idx_registry_user_election;not null" json:"user_id"`
	ElectionID string `gorm:"type:varchar(36);uniqueIndex:idx_registry_user_election;not null" json:"election_id"`

	// HasVoted 标记该用户是否已在该选举中投票
	HasVoted bool `gorm:"default:false" json:"has_voted"`

	// VotedAt 是投票时间，未投票时为NULL
	VotedAt *time.Time `json:"voted_at"`
}

// TableName 指定登记表的表名，与原有数据库结构保持一致。
func (Registry) TableName() string {
	return "vote_registry"
}
