package user

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 用户模块的哨兵错误
var (
	ErrEmailTaken         = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUserInactive       = errors.New("用户已被禁用")
	ErrUserNotFound       = errors.New("找不到用户")
)

// Service 封装了用户的注册、认证和查询逻辑。
// 数据库句柄由构造方注入，不依赖任何进程级单例。
type Service struct {
	db *gorm.DB
}

// NewService 创建一个用户服务。
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// RegisterInput 是注册操作的输入参数。
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// Register 创建一个新的voter用户，密码使用bcrypt哈希后存储。
func (s *Service) Register(input RegisterInput) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("无法哈希密码: %w", err)
	}

	newUUID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("无法生成UUID v7: %w", err)
	}

	newUser := User{
		ID:           newUUID.String(),
		Email:        input.Email,
		PasswordHash: string(hash),
		FullName:     input.FullName,
		Role:         RoleVoter,
		IsActive:     true,
	}

	if err := s.db.Create(&newUser).Error; err != nil {
		// 唯一索引冲突说明邮箱已被占用
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("无法创建新用户: %w", err)
	}

	return &newUser, nil
}

// Authenticate 校验邮箱和密码，成功时返回用户。
// 为避免泄露账号是否存在，不存在和密码错误返回同一个错误。
func (s *Service) Authenticate(email, password string) (*User, error) {
	var u User
	if err := s.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !u.IsActive {
		return nil, ErrUserInactive
	}

	return &u, nil
}

// GetByID 按主键查询用户。
func (s *Service) GetByID(id string) (*User, error) {
	var u User
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &u, nil
}

// Migrate 负责自动迁移用户表结构。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}); err != nil {
		return fmt.Errorf("无法迁移user表: %w", err)
	}
	fmt.Println("User数据库表迁移成功。")
	return nil
}
