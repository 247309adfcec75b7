package election

import (
	"errors"
	"time"
)

// 选举准入检查的哨兵错误
var (
	ErrElectionNotActive = errors.New("选举当前不接受投票")
	ErrVotingNotStarted  = errors.New("投票尚未开始")
	ErrVotingEnded       = errors.New("投票已经结束")
)

// CheckAdmissibility 判定一个选举在给定时刻是否接受投票。
// 纯函数，无任何副作用。检查顺序固定：状态 → 未开始 → 已结束。
// 时间窗口 [StartDate, EndDate] 两端均为闭区间。
func CheckAdmissibility(e *Election, now time.Time) error {
	if e.Status != StatusActive {
		return ErrElectionNotActive
	}
	if now.Before(e.StartDate) {
		return ErrVotingNotStarted
	}
	if now.After(e.EndDate) {
		return ErrVotingEnded
	}
	return nil
}

// IsActive 是用于展示的只读谓词：状态为active且处于投票窗口内。
// 边界语义与CheckAdmissibility完全一致。
func (e *Election) IsActive(now time.Time) bool {
	return CheckAdmissibility(e, now) == nil
}
