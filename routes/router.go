package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Kirill-Khudyakov/shotline/config"
	"github.com/Kirill-Khudyakov/shotline/controllers"
	"github.com/Kirill-Khudyakov/shotline/geocoder"
	"github.com/Kirill-Khudyakov/shotline/middleware"
	"github.com/Kirill-Khudyakov/shotline/serializers"
	"github.com/Kirill-Khudyakov/shotline/storage"
	"github.com/Kirill-Khudyakov/shotline/store"
	"github.com/Kirill-Khudyakov/shotline/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log to its own rolling file; panics go through zap as well.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Image blobs are served straight from the media root.
	r.Static(cfg.MediaURL, cfg.MediaRoot)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	entities := store.New(db)
	blobs := storage.NewLocal(cfg.MediaRoot)

	var geo geocoder.Client
	if cfg.GeocoderEnabled {
		geo = geocoder.NewNominatim(
			cfg.GeocoderUserAgent,
			time.Duration(cfg.GeocoderTimeoutSec)*time.Second,
			geocoder.WithBaseURL(cfg.GeocoderBaseURL),
			geocoder.WithCache(geocoder.NewRedisCache(utils.GetRedis())),
		)
	}
	views := serializers.NewBuilder(entities, geo, cfg.MediaURL)
	maxImageBytes := int64(cfg.MaxImageSizeMB) * 1024 * 1024

	authController := controllers.NewAuthController(entities)
	postController := controllers.NewPostController(entities, views, blobs, maxImageBytes)
	imageController := controllers.NewImageController(entities, views, blobs, maxImageBytes)
	likeController := controllers.NewLikeController(entities)
	commentController := controllers.NewCommentController(entities)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	// Reads are public; an optional identity is still resolved so the
	// ownership policy knows who is asking.
	public := api.Group("")
	public.Use(middleware.AuthOptional())
	public.GET("/posts", postController.ListPosts)
	public.GET("/posts/:id", postController.GetPost)
	public.GET("/posts/:id/images", imageController.ListImages)
	public.GET("/posts/:id/images/:imageId", imageController.GetImage)
	public.GET("/posts/:id/comments", commentController.ListComments)
	public.GET("/posts/:id/comments/:commentId", commentController.GetComment)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)

	protected.POST("/posts/:id/images", imageController.CreateImage)
	protected.DELETE("/posts/:id/images/:imageId", imageController.DeleteImage)

	// Like listing requires an authenticated caller, unlike the other reads.
	protected.GET("/posts/:id/likes", likeController.ListLikes)
	protected.GET("/posts/:id/likes/:likeId", likeController.GetLike)
	protected.POST("/posts/:id/likes", likeController.CreateLike)
	protected.DELETE("/posts/:id/likes/:likeId", likeController.DeleteLike)

	protected.POST("/posts/:id/comments", commentController.CreateComment)
	protected.PUT("/posts/:id/comments/:commentId", commentController.UpdateComment)
	protected.DELETE("/posts/:id/comments/:commentId", commentController.DeleteComment)

	return r
}
