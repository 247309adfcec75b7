package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SlpAus/anon-voting-backend/internal/election"
	"github.com/SlpAus/anon-voting-backend/internal/result"
	"github.com/SlpAus/anon-voting-backend/internal/user"
	"github.com/SlpAus/anon-voting-backend/internal/vote"
	"github.com/SlpAus/anon-voting-backend/pkg/token"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter int

// setupTestServer 装配一个连接内存SQLite的完整API服务器（不含Redis缓存）
func setupTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	token.GenerateSecretKey()

	testDBCounter++
	dsn := fmt.Sprintf("file:api_test_%d?mode=memory&cache=shared", testDBCounter)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("无法打开测试数据库: %v", err)
	}
	for _, migrate := range []func(*gorm.DB) error{user.Migrate, election.Migrate, vote.Migrate} {
		if err := migrate(db); err != nil {
			t.Fatalf("迁移失败: %v", err)
		}
	}

	resultSvc := result.NewService(db, nil)
	handlers := Handlers{
		User:     user.NewHandler(user.NewService(db), time.Hour),
		Election: election.NewHandler(election.NewService(db)),
		Vote:     vote.NewHandler(vote.NewLedger(db, nil)),
		Result:   result.NewHandler(resultSvc),
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRoutes(r, handlers)
	return r, db
}

// doJSON 发送一个JSON请求并返回响应记录器
func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("序列化请求体失败: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v (body=%s)", err, w.Body.String())
	}
	return body
}

// registerUser 注册一个用户并返回其会话令牌和用户ID
func registerUser(t *testing.T, r *gin.Engine, email string) (string, string) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/register", gin.H{
		"email":     email,
		"password":  "secret-password",
		"full_name": "测试用户",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("注册失败: %d %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	userInfo := body["user"].(map[string]any)
	return body["token"].(string), userInfo["id"].(string)
}

// registerAdmin 注册一个用户并将其提升为管理员，返回管理员令牌
func registerAdmin(t *testing.T, r *gin.Engine, db *gorm.DB, email string) string {
	t.Helper()
	_, userID := registerUser(t, r, email)
	if err := db.Model(&user.User{}).Where("id = ?", userID).Update("role", user.RoleAdmin).Error; err != nil {
		t.Fatalf("提升管理员失败: %v", err)
	}

	// 重新登录以获得携带admin角色的令牌
	w := doJSON(t, r, http.MethodPost, "/api/login", gin.H{
		"email":    email,
		"password": "secret-password",
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("管理员登录失败: %d %s", w.Code, w.Body.String())
	}
	return decodeBody(t, w)["token"].(string)
}

// TestFullVotingFlow 覆盖完整业务链路：
// 管理员建选举和候选人 → 用户投票 → 状态查询 → 实时结果 → 重复投票被拒 → 历史
func TestFullVotingFlow(t *testing.T) {
	r, db := setupTestServer(t)

	adminToken := registerAdmin(t, r, db, "admin@example.com")

	// 创建选举
	w := doJSON(t, r, http.MethodPost, "/api/elections", gin.H{
		"title":      "理事会选举",
		"start_date": time.Now().Add(-time.Hour).Format(time.RFC3339),
		"end_date":   time.Now().Add(time.Hour).Format(time.RFC3339),
	}, adminToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("创建选举失败: %d %s", w.Code, w.Body.String())
	}
	electionID := decodeBody(t, w)["id"].(string)

	// 添加候选人
	var candidateIDs []string
	for i, name := range []string{"候选人A", "候选人B"} {
		w = doJSON(t, r, http.MethodPost, "/api/elections/"+electionID+"/candidates", gin.H{
			"name":          name,
			"display_order": i + 1,
		}, adminToken)
		if w.Code != http.StatusCreated {
			t.Fatalf("创建候选人失败: %d %s", w.Code, w.Body.String())
		}
		candidateIDs = append(candidateIDs, decodeBody(t, w)["id"].(string))
	}

	// 激活选举
	w = doJSON(t, r, http.MethodPut, "/api/elections/"+electionID+"/status", gin.H{"status": "active"}, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("激活选举失败: %d %s", w.Code, w.Body.String())
	}

	voterToken, _ := registerUser(t, r, "voter@example.com")

	// 未认证投票被拒
	w = doJSON(t, r, http.MethodPost, "/api/vote", gin.H{
		"election_id": electionID, "candidate_id": candidateIDs[0],
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("未认证投票期望401，得到 %d", w.Code)
	}

	// 投票前 has-voted 为 false
	w = doJSON(t, r, http.MethodGet, "/api/has-voted/"+electionID, nil, voterToken)
	if w.Code != http.StatusOK || decodeBody(t, w)["has_voted"].(bool) {
		t.Fatalf("投票前has_voted应为false: %d %s", w.Code, w.Body.String())
	}

	// 投票成功
	w = doJSON(t, r, http.MethodPost, "/api/vote", gin.H{
		"election_id": electionID, "candidate_id": candidateIDs[0],
	}, voterToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("投票失败: %d %s", w.Code, w.Body.String())
	}
	receipt := decodeBody(t, w)
	if receipt["candidate"] != "候选人A" {
		t.Errorf("回执候选人不正确: %v", receipt)
	}
	if _, leaked := receipt["id"]; leaked {
		t.Error("回执不应包含选票ID")
	}

	// 投票后 has-voted 为 true
	w = doJSON(t, r, http.MethodGet, "/api/has-voted/"+electionID, nil, voterToken)
	body := decodeBody(t, w)
	if !body["has_voted"].(bool) || body["voted_at"] == nil {
		t.Errorf("投票后has_voted应为true: %v", body)
	}

	// 实时结果: A 1票100%，B 0票0%
	w = doJSON(t, r, http.MethodGet, "/api/results/"+electionID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("获取结果失败: %d %s", w.Code, w.Body.String())
	}
	resultsBody := decodeBody(t, w)
	if resultsBody["total_votes"].(float64) != 1 {
		t.Errorf("期望总票数1，得到 %v", resultsBody["total_votes"])
	}
	entries := resultsBody["results"].([]any)
	top := entries[0].(map[string]any)
	second := entries[1].(map[string]any)
	if top["candidate_name"] != "候选人A" || top["percentage"].(float64) != 100 {
		t.Errorf("第一名结果不正确: %v", top)
	}
	if second["votes"].(float64) != 0 || second["percentage"].(float64) != 0 {
		t.Errorf("第二名结果不正确: %v", second)
	}

	// 同一用户的第二票被拒绝，结果不变
	w = doJSON(t, r, http.MethodPost, "/api/vote", gin.H{
		"election_id": electionID, "candidate_id": candidateIDs[1],
	}, voterToken)
	if w.Code != http.StatusBadRequest || decodeBody(t, w)["code"] != "ALREADY_VOTED" {
		t.Fatalf("重复投票期望400/ALREADY_VOTED: %d %s", w.Code, w.Body.String())
	}

	// 关闭选举后查询历史
	w = doJSON(t, r, http.MethodPut, "/api/elections/"+electionID+"/status", gin.H{"status": "closed"}, adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("关闭选举失败: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/history", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("获取历史失败: %d %s", w.Code, w.Body.String())
	}
	var history []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &history); err != nil {
		t.Fatalf("解析历史失败: %v", err)
	}
	if len(history) != 1 || history[0]["winner"] != "候选人A" {
		t.Errorf("历史记录不正确: %v", history)
	}
}

// TestAdminRoutesRequireAdminRole 验证普通用户无法访问管理员路由
func TestAdminRoutesRequireAdminRole(t *testing.T) {
	r, _ := setupTestServer(t)
	voterToken, _ := registerUser(t, r, "voter2@example.com")

	w := doJSON(t, r, http.MethodPost, "/api/elections", gin.H{
		"title":      "越权创建",
		"start_date": time.Now().Format(time.RFC3339),
		"end_date":   time.Now().Add(time.Hour).Format(time.RFC3339),
	}, voterToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("普通用户创建选举期望403，得到 %d", w.Code)
	}
}

// TestResultsAndHasVotedNotFound 验证未知选举的404路径
func TestResultsAndHasVotedNotFound(t *testing.T) {
	r, _ := setupTestServer(t)
	voterToken, _ := registerUser(t, r, "voter3@example.com")

	w := doJSON(t, r, http.MethodGet, "/api/results/missing", nil, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("未知选举的results期望404，得到 %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/has-voted/missing", nil, voterToken)
	if w.Code != http.StatusNotFound {
		t.Errorf("未知选举的has-voted期望404，得到 %d", w.Code)
	}
}

// TestLoginFailures 验证登录的错误路径
func TestLoginFailures(t *testing.T) {
	r, db := setupTestServer(t)
	_, userID := registerUser(t, r, "voter4@example.com")

	// 密码错误
	w := doJSON(t, r, http.MethodPost, "/api/login", gin.H{
		"email": "voter4@example.com", "password": "wrong-password",
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("密码错误期望401，得到 %d", w.Code)
	}

	// 重复注册同一邮箱
	w = doJSON(t, r, http.MethodPost, "/api/register", gin.H{
		"email": "voter4@example.com", "password": "secret-password", "full_name": "再注册",
	}, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("重复邮箱注册期望400，得到 %d", w.Code)
	}

	// 被禁用的账号无法登录
	if err := db.Model(&user.User{}).Where("id = ?", userID).Update("is_active", false).Error; err != nil {
		t.Fatalf("禁用账号失败: %v", err)
	}
	w = doJSON(t, r, http.MethodPost, "/api/login", gin.H{
		"email": "voter4@example.com", "password": "secret-password",
	}, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("禁用账号登录期望403，得到 %d", w.Code)
	}
}
