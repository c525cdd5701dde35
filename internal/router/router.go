package router

import (
	"github.com/gin-gonic/gin"
	"github.com/slipstreak/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由。
// developmentMode 控制是否暴露模拟时钟相关接口，生产构建不注册。
func SetupRouter(api *handler.API, developmentMode bool) *gin.Engine {
	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	apiGroup := r.Group("/api")
	{
		habit := apiGroup.Group("/habit")
		{
			habit.GET("", api.GetHabit)
			habit.PUT("", api.SaveHabit)
			habit.DELETE("", api.DeleteHabit)
			habit.POST("/slip-ups", api.RecordSlipUp)
			habit.POST("/history", api.RestoreHistory)
			habit.GET("/report", api.GetStreakReport)
			habit.GET("/events", api.StreamHabitEvents)
		}

		if developmentMode {
			apiGroup.POST("/dev/advance-day", api.AdvanceDay)
		}
	}

	return r
}
