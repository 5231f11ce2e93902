package api

import (
	"github.com/SlpAus/macro-tracker-backend/internal/meal"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/health"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/metrics"
	"github.com/SlpAus/macro-tracker-backend/internal/recipe"
	"github.com/SlpAus/macro-tracker-backend/internal/totals"
	"github.com/SlpAus/macro-tracker-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// Deps 汇集了注册路由所需的处理器
type Deps struct {
	Users      *user.Service
	CookieName string

	Auth    *user.Handler
	Meals   *meal.Handler
	Recipes *recipe.Handler
	History *totals.Handler
	Health  *health.Checker
}

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api")
	{
		// 公开路由
		if deps.Health != nil {
			api.GET("/health", deps.Health.Handler())
		}
		api.POST("/auth/signup", deps.Auth.Signup)
		api.POST("/auth/login", deps.Auth.Login)

		// 以下路由都需要登录
		authed := api.Group("", user.RequireUser(deps.Users, deps.CookieName))
		{
			authed.GET("/auth/me", deps.Auth.Me)
			authed.POST("/auth/logout", deps.Auth.Logout)

			// 餐食
			authed.GET("/meals", deps.Meals.GetDay)
			authed.GET("/meals/:id", deps.Meals.Get)
			authed.PATCH("/meals/:id", deps.Meals.Patch)
			authed.DELETE("/meals/:id", deps.Meals.Delete)
			authed.POST("/parse-meal", deps.Meals.ParseMeal)

			// 历史
			authed.GET("/history", deps.History.GetHistory)

			// 食谱
			recipes := authed.Group("/recipes")
			{
				recipes.GET("", deps.Recipes.List)
				recipes.POST("", deps.Recipes.Create)
				recipes.PATCH("/:id", deps.Recipes.Patch)
				recipes.DELETE("/:id", deps.Recipes.Delete)
				recipes.POST("/add-to-meals", deps.Recipes.AddToMeals)
				recipes.POST("/from-meal", deps.Recipes.FromMeal)
			}
		}
	}
}
