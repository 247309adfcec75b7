package result

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/SlpAus/anon-voting-backend/internal/election"
	"github.com/SlpAus/anon-voting-backend/internal/vote"
	"gorm.io/gorm"
)

// CandidateResult 是单个候选人的计票结果。
type CandidateResult struct {
	CandidateID    string  `json:"candidate_id"`
	CandidateName  string  `json:"candidate_name"`
	CandidatePhoto string  `json:"candidate_photo,omitempty"`
	PartyGroup     string  `json:"party_group,omitempty"`
	Votes          int64   `json:"votes"`
	Percentage     float64 `json:"percentage"`

	// displayOrder 仅用于排序时的平票裁决，不输出
	displayOrder int
}

// ElectionResults 是一场选举的完整计票结果。
type ElectionResults struct {
	Election   election.Election `json:"election"`
	TotalVotes int64             `json:"total_votes"`
	Results    []CandidateResult `json:"results"`
}

// HistoryEntry 是历史视图中一场已关闭选举的条目。
// Winner 是得票数严格最大的候选人名称；无人投票或最高票并列时为null——
// 平票不由计票引擎裁决。
type HistoryEntry struct {
	Election   election.Election `json:"election"`
	TotalVotes int64             `json:"total_votes"`
	Winner     *string           `json:"winner"`
	Results    []CandidateResult `json:"results"`
}

// Service 是计票引擎。纯读聚合，无任何副作用；
// 给定一组固定的选票，输出是确定的。
type Service struct {
	db    *gorm.DB
	cache *Cache
}

// NewService 创建一个计票服务。cache可以为nil。
func NewService(db *gorm.DB, cache *Cache) *Service {
	return &Service{db: db, cache: cache}
}

// tallyRow 是按候选人分组计数的查询结果行
type tallyRow struct {
	CandidateID string
	Count       int64
}

// ComputeResults 计算一场选举的计票结果。
// 选举不存在时返回election.ErrElectionNotFound；
// 没有其他前置条件——draft和active的选举同样可以计票（实时结果）。
func (s *Service) ComputeResults(ctx context.Context, electionID string) (*ElectionResults, error) {
	// 先尝试缓存
	if cached, ok := s.cache.Get(ctx, electionID); ok {
		return cached, nil
	}

	results, err := s.computeFromDB(ctx, electionID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, electionID, results)
	return results, nil
}

// computeFromDB 绕过缓存，直接从数据库聚合计票。
func (s *Service) computeFromDB(ctx context.Context, electionID string) (*ElectionResults, error) {
	var e election.Election
	if err := s.db.WithContext(ctx).First(&e, "id = ?", electionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, election.ErrElectionNotFound
		}
		return nil, fmt.Errorf("查询选举失败: %w", err)
	}

	// 该选举的全部候选人（包括零票的）
	var candidates []election.Candidate
	if err := s.db.WithContext(ctx).
		Where("election_id = ?", electionID).
		Order("display_order ASC, name ASC").
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("查询候选人失败: %w", err)
	}

	// 按候选人分组计票
	var rows []tallyRow
	if err := s.db.WithContext(ctx).
		Model(&vote.Vote{}).
		Select("candidate_id, COUNT(*) AS count").
		Where("election_id = ?", electionID).
		Group("candidate_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("聚合选票失败: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	var totalVotes int64
	for _, row := range rows {
		counts[row.CandidateID] = row.Count
		totalVotes += row.Count
	}

	results := make([]CandidateResult, 0, len(candidates))
	for _, cand := range candidates {
		votes := counts[cand.ID]
		// 没有选票时百分比为0，避免除零
		var percentage float64
		if totalVotes > 0 {
			percentage = roundTo2(float64(votes) / float64(totalVotes) * 100)
		}
		results = append(results, CandidateResult{
			CandidateID:    cand.ID,
			CandidateName:  cand.Name,
			CandidatePhoto: cand.PhotoURL,
			PartyGroup:     cand.PartyGroup,
			Votes:          votes,
			Percentage:     percentage,
			displayOrder:   cand.DisplayOrder,
		})
	}

	// 得票数降序；平票按展示顺序、再按名称裁决，保证输出确定
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Votes != results[j].Votes {
			return results[i].Votes > results[j].Votes
		}
		if results[i].displayOrder != results[j].displayOrder {
			return results[i].displayOrder < results[j].displayOrder
		}
		return results[i].CandidateName < results[j].CandidateName
	})

	return &ElectionResults{
		Election:   e,
		TotalVotes: totalVotes,
		Results:    results,
	}, nil
}

// History 返回所有已关闭选举的最终结果，最近结束的在前。
func (s *Service) History(ctx context.Context) ([]HistoryEntry, error) {
	var closed []election.Election
	if err := s.db.WithContext(ctx).
		Where("status = ?", election.StatusClosed).
		Order("end_date DESC").
		Find(&closed).Error; err != nil {
		return nil, fmt.Errorf("查询已关闭选举失败: %w", err)
	}

	history := make([]HistoryEntry, 0, len(closed))
	for _, e := range closed {
		results, err := s.computeFromDB(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		history = append(history, HistoryEntry{
			Election:   results.Election,
			TotalVotes: results.TotalVotes,
			Winner:     determineWinner(results.Results),
			Results:    results.Results,
		})
	}
	return history, nil
}

// determineWinner 找出得票数严格最大的候选人。
// 无人投票或最高票并列时返回nil。
func determineWinner(results []CandidateResult) *string {
	var maxVotes int64
	var winner *string
	for i := range results {
		switch {
		case results[i].Votes > maxVotes:
			maxVotes = results[i].Votes
			winner = &results[i].CandidateName
		case results[i].Votes == maxVotes && maxVotes > 0:
			// 最高票并列，没有获胜者
			winner = nil
		}
	}
	if maxVotes == 0 {
		return nil
	}
	return winner
}

// roundTo2 将浮点数四舍五入到2位小数。
func roundTo2(x float64) float64 {
	return math.Round(x*100) / 100
}
