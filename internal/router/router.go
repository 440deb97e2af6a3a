package router

import (
	"github.com/fitlog/internal/config"
	"github.com/fitlog/internal/handler"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(gdb *gorm.DB, cfg config.AppConfig) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	r := gin.Default()
	r.Use(handler.RequestID())

	a := handler.NewAPI(gdb, cfg)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := r.Group("/api")
	{
		api.POST("/auth/register", a.Register)
		api.POST("/auth/login", a.Login)

		// 需要认证的路由
		auth := api.Group("")
		auth.Use(a.RequireUser())
		{
			auth.POST("/auth/logout", a.Logout)
			auth.GET("/auth/me", a.Me)

			auth.GET("/exercises", a.ListExercises)
			auth.POST("/exercises", a.CreateExercise)
			auth.GET("/exercises/:id", a.GetExercise)
			auth.PATCH("/exercises/:id", a.UpdateExercise)
			auth.DELETE("/exercises/:id", a.DeleteExercise)
			auth.GET("/exercises/:id/usage", a.GetExerciseUsage)

			auth.GET("/workouts", a.ListWorkouts)
			auth.POST("/workouts", a.CreateWorkout)
			auth.GET("/workouts/:id", a.GetWorkout)
			auth.DELETE("/workouts/:id", a.DeleteWorkout)
			auth.GET("/workouts/:id/items", a.ListWorkoutItems)
			auth.POST("/workouts/:id/items", a.AddWorkoutItem)
			auth.PATCH("/workouts/:id/items/:itemId", a.UpdateWorkoutItem)
			auth.DELETE("/workouts/:id/items/:itemId", a.DeleteWorkoutItem)
			auth.POST("/workouts/:id/resequence", a.ResequenceWorkout)
			auth.GET("/workouts/:id/muscles", a.GetWorkoutMuscles)
			auth.POST("/workouts/:id/make-session", a.MakeSessionFromWorkout)

			auth.GET("/sessions", a.ListSessions)
			auth.POST("/sessions", a.CreateSession)
			auth.GET("/sessions/:id", a.GetSession)
			auth.DELETE("/sessions/:id", a.DeleteSession)
			auth.GET("/sessions/:id/items", a.ListSessionItems)
			auth.POST("/sessions/:id/items", a.AddSessionItem)
			auth.PATCH("/sessions/:id/items/:itemId", a.UpdateSessionItem)
			auth.DELETE("/sessions/:id/items/:itemId", a.DeleteSessionItem)
			auth.GET("/sessions/:id/items/:itemId/sets", a.ListSessionSets)
			auth.POST("/sessions/:id/items/:itemId/sets", a.AddSessionSet)
			auth.DELETE("/sessions/:id/items/:itemId/sets/:setId", a.DeleteSessionSet)
			auth.GET("/sessions/:id/items/:itemId/cardio", a.GetSessionCardio)
			auth.PUT("/sessions/:id/items/:itemId/cardio", a.PutSessionCardio)

			auth.GET("/external/muscles", a.ListExternalMuscles)
			auth.GET("/external/exercises", a.SearchExternalExercises)
			auth.GET("/external/exercises/browse", a.BrowseExternalExercises)
			auth.POST("/external/exercises/import", a.ImportExternalExercise)
		}
	}

	return r
}
