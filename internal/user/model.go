package user

import (
	"time"
)

// Role 定义了用户角色的枚举类型
type Role string

const (
	// RoleVoter 是普通投票用户（默认角色）
	RoleVoter Role = "voter"
	// RoleAdmin 是系统管理员，可以创建选举和候选人
	RoleAdmin Role = "admin"
)

// User 定义了用户在数据库中的持久化模型。
type User struct {
	// ID 是用户的主键，UUID字符串
	ID string `gorm:"primarykey;type:varchar(36)" json:"id"`

	// Email 是用户的登录标识，全局唯一
	Email string `gorm:"uniqueIndex;type:varchar(255);not null" json:"email"`

	// PasswordHash 是bcrypt哈希后的密码，绝不出现在任何JSON响应中
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`

	// FullName 是用户的显示名称
	FullName string `gorm:"type:varchar(255)" json:"full_name"`

	// Role 是用户角色: voter 或 admin
	Role Role `gorm:"type:varchar(10);default:voter" json:"role"`

	// IsActive 标记账号是否可用，被禁用的账号无法登录
	IsActive bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
}
