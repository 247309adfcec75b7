package result

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/SlpAus/anon-voting-backend/internal/election"
	"github.com/SlpAus/anon-voting-backend/internal/vote"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int

// newTestDB 创建一个独立的内存SQLite数据库并完成迁移
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	testDBCounter++
	dsn := fmt.Sprintf("file:result_test_%d?mode=memory&cache=shared", testDBCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("无法打开测试数据库: %v", err)
	}
	if err := election.Migrate(db); err != nil {
		t.Fatalf("迁移election表失败: %v", err)
	}
	if err := vote.Migrate(db); err != nil {
		t.Fatalf("迁移vote表失败: %v", err)
	}
	return db
}

// seedElection 创建一场选举和指定的候选人，按顺序分配display_order
func seedElection(t *testing.T, db *gorm.DB, status election.Status, names ...string) (election.Election, []election.Candidate) {
	t.Helper()
	e := election.Election{
		ID:        uuid.NewString(),
		Title:     "社区选举",
		StartDate: time.Now().Add(-2 * time.Hour),
		EndDate:   time.Now().Add(2 * time.Hour),
		Status:    status,
	}
	if err := db.Create(&e).Error; err != nil {
		t.Fatalf("创建选举失败: %v", err)
	}

	candidates := make([]election.Candidate, 0, len(names))
	for i, name := range names {
		cand := election.Candidate{ID: uuid.NewString(), ElectionID: e.ID, Name: name, DisplayOrder: i + 1}
		if err := db.Create(&cand).Error; err != nil {
			t.Fatalf("创建候选人失败: %v", err)
		}
		candidates = append(candidates, cand)
	}
	return e, candidates
}

// castVotes 直接写入指定数量的匿名选票
func castVotes(t *testing.T, db *gorm.DB, e election.Election, cand election.Candidate, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		v := vote.Vote{ID: uuid.NewString(), ElectionID: e.ID, CandidateID: cand.ID, CastAt: time.Now()}
		if err := db.Create(&v).Error; err != nil {
			t.Fatalf("写入选票失败: %v", err)
		}
	}
}

// TestComputeResultsZeroVotes 验证零票时所有百分比为0且不发生除零
func TestComputeResultsZeroVotes(t *testing.T) {
	db := newTestDB(t)
	e, _ := seedElection(t, db, election.StatusActive, "甲", "乙")
	svc := NewService(db, nil)

	results, err := svc.ComputeResults(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("ComputeResults失败: %v", err)
	}
	if results.TotalVotes != 0 {
		t.Errorf("期望0票，得到 %d", results.TotalVotes)
	}
	if len(results.Results) != 2 {
		t.Fatalf("零票的候选人也必须出现在结果中，得到 %d 项", len(results.Results))
	}
	for _, r := range results.Results {
		if r.Votes != 0 || r.Percentage != 0 {
			t.Errorf("零票时应全为0: %+v", r)
		}
	}
}

// TestComputeResultsPercentages 验证百分比计算、排序和求和性质
func TestComputeResultsPercentages(t *testing.T) {
	db := newTestDB(t)
	e, cands := seedElection(t, db, election.StatusActive, "甲", "乙", "丙")
	castVotes(t, db, e, cands[0], 1)
	castVotes(t, db, e, cands[1], 1)
	castVotes(t, db, e, cands[2], 1)
	svc := NewService(db, nil)

	results, err := svc.ComputeResults(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("ComputeResults失败: %v", err)
	}
	if results.TotalVotes != 3 {
		t.Errorf("期望3票，得到 %d", results.TotalVotes)
	}

	// 1/3 → 33.33，四舍五入到2位小数
	var sum float64
	for _, r := range results.Results {
		if r.Percentage != 33.33 {
			t.Errorf("期望33.33%%，得到 %v", r.Percentage)
		}
		sum += r.Percentage
	}
	// 总和允许舍入误差
	if math.Abs(sum-100) > 0.05 {
		t.Errorf("百分比总和应接近100，得到 %v", sum)
	}
}

// TestComputeResultsOrdering 验证得票降序和平票时的确定性裁决
func TestComputeResultsOrdering(t *testing.T) {
	db := newTestDB(t)
	e, cands := seedElection(t, db, election.StatusActive, "甲", "乙", "丙")
	castVotes(t, db, e, cands[0], 2) // 甲: 2
	castVotes(t, db, e, cands[1], 5) // 乙: 5
	castVotes(t, db, e, cands[2], 2) // 丙: 2，与甲平票，display_order裁决
	svc := NewService(db, nil)

	results, err := svc.ComputeResults(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("ComputeResults失败: %v", err)
	}

	gotNames := []string{results.Results[0].CandidateName, results.Results[1].CandidateName, results.Results[2].CandidateName}
	wantNames := []string{"乙", "甲", "丙"}
	for i := range wantNames {
		if gotNames[i] != wantNames[i] {
			t.Fatalf("排序不正确: 得到 %v, 期望 %v", gotNames, wantNames)
		}
	}
}

// TestComputeResultsElectionNotFound 验证选举不存在时的错误
func TestComputeResultsElectionNotFound(t *testing.T) {
	svc := NewService(newTestDB(t), nil)
	if _, err := svc.ComputeResults(context.Background(), "missing"); !errors.Is(err, election.ErrElectionNotFound) {
		t.Errorf("期望 ErrElectionNotFound，得到 %v", err)
	}
}

// TestHistoryScenario 验证规格场景：45/62/28 → 总135，获胜者为得票最高者，降序输出
func TestHistoryScenario(t *testing.T) {
	db := newTestDB(t)
	e, cands := seedElection(t, db, election.StatusClosed, "A", "B", "C")
	castVotes(t, db, e, cands[0], 45)
	castVotes(t, db, e, cands[1], 62)
	castVotes(t, db, e, cands[2], 28)
	svc := NewService(db, nil)

	history, err := svc.History(context.Background())
	if err != nil {
		t.Fatalf("History失败: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("期望1条历史记录，得到 %d", len(history))
	}

	entry := history[0]
	if entry.TotalVotes != 135 {
		t.Errorf("期望135票，得到 %d", entry.TotalVotes)
	}
	if entry.Winner == nil || *entry.Winner != "B" {
		t.Errorf("期望获胜者为B，得到 %v", entry.Winner)
	}
	gotVotes := []int64{entry.Results[0].Votes, entry.Results[1].Votes, entry.Results[2].Votes}
	wantVotes := []int64{62, 45, 28}
	for i := range wantVotes {
		if gotVotes[i] != wantVotes[i] {
			t.Fatalf("结果排序不正确: 得到 %v, 期望 %v", gotVotes, wantVotes)
		}
	}
}

// TestHistoryWinnerTieIsNull 验证最高票并列时没有获胜者
func TestHistoryWinnerTieIsNull(t *testing.T) {
	db := newTestDB(t)
	e, cands := seedElection(t, db, election.StatusClosed, "甲", "乙")
	castVotes(t, db, e, cands[0], 3)
	castVotes(t, db, e, cands[1], 3)
	svc := NewService(db, nil)

	history, err := svc.History(context.Background())
	if err != nil {
		t.Fatalf("History失败: %v", err)
	}
	if history[0].Winner != nil {
		t.Errorf("平票时获胜者应为null，得到 %v", *history[0].Winner)
	}
}

// TestHistoryZeroVotesWinnerIsNull 验证无人投票的选举没有获胜者
func TestHistoryZeroVotesWinnerIsNull(t *testing.T) {
	db := newTestDB(t)
	seedElection(t, db, election.StatusClosed, "甲", "乙")
	svc := NewService(db, nil)

	history, err := svc.History(context.Background())
	if err != nil {
		t.Fatalf("History失败: %v", err)
	}
	if history[0].Winner != nil {
		t.Errorf("零票时获胜者应为null，得到 %v", *history[0].Winner)
	}
}

// TestHistoryOrderAndScope 验证历史只含closed选举，按结束时间倒序
func TestHistoryOrderAndScope(t *testing.T) {
	db := newTestDB(t)

	older, _ := seedElection(t, db, election.StatusClosed, "甲")
	db.Model(&older).Update("end_date", time.Now().Add(-48*time.Hour))

	newer, _ := seedElection(t, db, election.StatusClosed, "乙")
	db.Model(&newer).Update("end_date", time.Now().Add(-24*time.Hour))

	// active选举不应出现在历史中
	seedElection(t, db, election.StatusActive, "丙")

	svc := NewService(db, nil)
	history, err := svc.History(context.Background())
	if err != nil {
		t.Fatalf("History失败: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("期望2条历史记录，得到 %d", len(history))
	}
	if history[0].Election.ID != newer.ID || history[1].Election.ID != older.ID {
		t.Errorf("历史应按结束时间倒序排列")
	}
}

// TestLiveResultsForDraftElection 验证draft选举也可以计票（无附加前置条件）
func TestLiveResultsForDraftElection(t *testing.T) {
	db := newTestDB(t)
	e, _ := seedElection(t, db, election.StatusDraft, "甲")
	svc := NewService(db, nil)

	if _, err := svc.ComputeResults(context.Background(), e.ID); err != nil {
		t.Errorf("draft选举计票不应失败: %v", err)
	}
}
