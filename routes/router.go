package routes

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/inkwell/config"
	"github.com/cppla/inkwell/controllers"
	"github.com/cppla/inkwell/middleware"
	"github.com/cppla/inkwell/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) (*gin.Engine, error) {
	cfg := config.Get()
	switch strings.ToLower(cfg.Gin.Mode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file when configured
	accessLog := utils.Logger
	if cfg.Gin.LogPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.Gin.LogPath, cfg.Log)
		if err != nil {
			utils.Logger.Warn("gin access log unavailable, using app logger", zap.Error(err))
		} else {
			accessLog = gl
		}
	}
	r.Use(ginzap.Ginzap(accessLog, time.RFC3339, true))
	r.Use(ginzap.CustomRecoveryWithZap(accessLog, false, middleware.RecoverPanic))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.App.AllowedOrigins) == 0 || (len(cfg.App.AllowedOrigins) == 1 && cfg.App.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.App.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.ErrorHandler())

	if err := controllers.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	files, err := utils.NewFileStore(cfg.Upload.Dir)
	if err != nil {
		return nil, err
	}
	r.Static("/uploads", files.Dir())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	userController := controllers.NewUserController(db, files)
	postController := controllers.NewPostController(db, files)

	api := r.Group("/api")

	users := api.Group("/users")
	users.POST("/register", userController.Register)
	users.POST("/login", userController.Login)
	users.POST("/logout", middleware.AuthRequired(), userController.Logout)
	users.GET("/:id", userController.GetUser)
	users.GET("", userController.GetAuthors)
	users.POST("/change-avatar", middleware.AuthRequired(), userController.ChangeAvatar)
	users.PATCH("/edit-user", middleware.AuthRequired(), userController.EditUser)

	posts := api.Group("/posts")
	posts.GET("", postController.GetPosts)
	posts.GET("/:id", postController.GetPost)
	posts.GET("/categories/:category", postController.GetCatPosts)
	posts.GET("/users/:id", postController.GetUserPosts)
	posts.POST("", middleware.AuthRequired(), postController.CreatePost)
	posts.PATCH("/:id", middleware.AuthRequired(), postController.EditPost)
	posts.DELETE("/:id", middleware.AuthRequired(), postController.DeletePost)

	r.NoRoute(middleware.NotFoundRoute)

	return r, nil
}
