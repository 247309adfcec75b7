package api

import (
	"github.com/SlpAus/anon-voting-backend/internal/election"
	"github.com/SlpAus/anon-voting-backend/internal/result"
	"github.com/SlpAus/anon-voting-backend/internal/user"
	"github.com/SlpAus/anon-voting-backend/internal/vote"
	"github.com/gin-gonic/gin"
)

// Handlers 汇集了注册路由所需的全部处理器。
type Handlers struct {
	User     *user.Handler
	Election *election.Handler
	Vote     *vote.Handler
	Result   *result.Handler
}

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine, h Handlers) {
	api := router.Group("/api")
	{
		// 用户相关的路由
		api.POST("/register", h.User.Register)
		api.POST("/login", h.User.Login)
		api.GET("/profile", user.RequireAuth(), h.User.Profile)

		// 选举和候选人的公开查询路由
		api.GET("/elections", h.Election.ListElections)
		api.GET("/elections/:id", h.Election.GetElection)
		api.GET("/candidates", h.Election.ListCandidates)

		// 管理员路由组
		admin := api.Group("", user.RequireAuth(), user.RequireAdmin())
		{
			admin.POST("/elections", h.Election.CreateElection)
			admin.PUT("/elections/:id/status", h.Election.UpdateStatus)
			admin.POST("/elections/:id/candidates", h.Election.CreateCandidate)
		}

		// 投票相关的路由（需要认证）
		api.POST("/vote", user.RequireAuth(), h.Vote.SubmitVote)
		api.GET("/has-voted/:id", user.RequireAuth(), h.Vote.HasVoted)

		// 计票相关的公开路由
		api.GET("/results/:id", h.Result.GetResults)
		api.GET("/history", h.Result.GetHistory)
	}
}
