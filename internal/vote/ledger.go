package vote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/anon-voting-backend/internal/election"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 投票模块的哨兵错误
var (
	ErrCandidateNotFound      = errors.New("找不到该候选人")
	ErrCandidateNotInElection = errors.New("候选人不属于该选举")
	ErrAlreadyVoted           = errors.New("你已经在该选举中投过票")
)

// TallyInvalidator 在一次投票成功提交后被调用，用于让计票缓存失效。
// 由装配方注入，避免vote模块反向依赖result模块。
type TallyInvalidator func(electionID string)

// Ledger 是投票的事务核心。
// 它在单个数据库事务中完成全部校验、选票写入和登记表更新，
// 不持有任何跨请求的内存状态——并发控制完全交给数据库，
// 因为生产环境中本服务是多进程部署的。
type Ledger struct {
	db  *gorm.DB
	now func() time.Time

	invalidate TallyInvalidator
}

// NewLedger 创建一个投票核心。invalidate 可以为nil。
func NewLedger(db *gorm.DB, invalidate TallyInvalidator) *Ledger {
	return &Ledger{db: db, now: time.Now, invalidate: invalidate}
}

// Receipt 是投票成功后的回执。
// 它只确认选票计入了哪场选举和哪位候选人，
// 绝不回传选票ID等任何可以将选票与投票人关联起来的信息。
type Receipt struct {
	Message       string `json:"message"`
	ElectionTitle string `json:"election"`
	CandidateName string `json:"candidate"`
}

// CastVote 为一名已认证用户在一场选举中投出一票。
//
// 校验顺序固定，每一步失败都会在写入任何数据之前短路返回：
//  1. 选举存在                 → election.ErrElectionNotFound
//  2. 候选人存在               → ErrCandidateNotFound
//  3. 候选人属于该选举         → ErrCandidateNotInElection
//  4. 选举准入（状态+时间窗口） → guard的具体错误
//  5. 该用户未在该选举投过票    → ErrAlreadyVoted
//
// 写入阶段是一个原子单元：匿名选票的插入和登记行的更新/创建
// 要么一起提交，要么一起回滚。同一(用户, 选举)对上的并发请求
// 由登记行的行锁和复合唯一索引裁决，恰好一个成功，其余得到ErrAlreadyVoted。
func (l *Ledger) CastVote(ctx context.Context, voterID, electionID, candidateID string) (*Receipt, error) {
	var receipt *Receipt

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 选举必须存在
		var e election.Election
		if err := tx.First(&e, "id = ?", electionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return election.ErrElectionNotFound
			}
			return fmt.Errorf("查询选举失败: %w", err)
		}

		// 2. 候选人必须存在
		var cand election.Candidate
		if err := tx.First(&cand, "id = ?", candidateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCandidateNotFound
			}
			return fmt.Errorf("查询候选人失败: %w", err)
		}

		// 3. 候选人必须属于这场选举
		if cand.ElectionID != e.ID {
			return ErrCandidateNotInElection
		}

		// 4. 选举必须处于可投票状态和时间窗口内
		now := l.now()
		if err := election.CheckAdmissibility(&e, now); err != nil {
			return err
		}

		// 5. 锁定并检查登记行，防止同一用户的并发重复投票
		// 行锁让同一(用户, 选举)对上的竞争请求在这里串行化
		var reg Registry
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND election_id = ?", voterID, electionID).
			First(&reg).Error
		regFound := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("查询投票登记失败: %w", err)
		}
		if regFound && reg.HasVoted {
			return ErrAlreadyVoted
		}

		// --- 原子写入阶段 ---

		// 写入匿名选票：只引用选举和候选人，绝不引用投票人
		voteUUID, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("无法生成UUID v7: %w", err)
		}
		newVote := Vote{
			ID:          voteUUID.String(),
			ElectionID:  e.ID,
			CandidateID: cand.ID,
			CastAt:      now,
		}
		if err := tx.Create(&newVote).Error; err != nil {
			return fmt.Errorf("无法写入选票: %w", err)
		}

		// 更新或创建登记行
		if regFound {
			// 预置的登记行（has_voted=false）就地更新
			reg.HasVoted = true
			reg.VotedAt = &now
			if err := tx.Save(&reg).Error; err != nil {
				return fmt.Errorf("无法更新投票登记: %w", err)
			}
		} else {
			regUUID, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("无法生成UUID v7: %w", err)
			}
			newReg := Registry{
				ID:         regUUID.String(),
				UserID:     voterID,
				ElectionID: e.ID,
				HasVoted:   true,
				VotedAt:    &now,
			}
			if err := tx.Create(&newReg).Error; err != nil {
				// 复合唯一索引冲突说明另一个并发请求抢先登记成功。
				// 返回ErrAlreadyVoted会让整个事务回滚，本次的选票插入随之撤销，
				// 不会留下重复选票。
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrAlreadyVoted
				}
				return fmt.Errorf("无法创建投票登记: %w", err)
			}
		}

		receipt = &Receipt{
			Message:       "投票成功",
			ElectionTitle: e.Title,
			CandidateName: cand.Name,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 事务提交后让该选举的计票缓存失效（尽力而为）
	if l.invalidate != nil {
		l.invalidate(electionID)
	}

	return receipt, nil
}

// HasVotedInfo 是已投票查询的结果。
type HasVotedInfo struct {
	HasVoted      bool       `json:"has_voted"`
	ElectionID    string     `json:"election_id"`
	ElectionTitle string     `json:"election_title"`
	VotedAt       *time.Time `json:"voted_at"`
}

// HasVoted 查询一名用户在一场选举中是否已投票。
// 选举不存在时返回election.ErrElectionNotFound；没有登记行视为未投票。
func (l *Ledger) HasVoted(ctx context.Context, userID, electionID string) (*HasVotedInfo, error) {
	var e election.Election
	if err := l.db.WithContext(ctx).First(&e, "id = ?", electionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, election.ErrElectionNotFound
		}
		return nil, fmt.Errorf("查询选举失败: %w", err)
	}

	info := &HasVotedInfo{
		HasVoted:      false,
		ElectionID:    e.ID,
		ElectionTitle: e.Title,
	}

	var reg Registry
	err := l.db.WithContext(ctx).
		Where("user_id = ? AND election_id = ?", userID, electionID).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return info, nil
		}
		return nil, fmt.Errorf("查询投票登记失败: %w", err)
	}

	info.HasVoted = reg.HasVoted
	info.VotedAt = reg.VotedAt
	return info, nil
}

// Migrate 负责自动迁移选票和登记表结构。
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Vote{}, &Registry{}); err != nil {
		return fmt.Errorf("无法迁移vote相关表: %w", err)
	}
	fmt.Println("Vote数据库表迁移成功。")
	return nil
}
