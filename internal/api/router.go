package api

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/fable_go_server/config"
	"github.com/qs3c/fable_go_server/internal/api/handler"
	"github.com/qs3c/fable_go_server/internal/api/middleware"
	"github.com/qs3c/fable_go_server/internal/service"
)

type Router struct {
	authHandler      *handler.AuthHandler
	userHandler      *handler.UserHandler
	avatarHandler    *handler.AvatarHandler
	storyHandler     *handler.StoryHandler
	videoHandler     *handler.VideoHandler
	rosterHandler    *handler.RosterHandler
	websocketHandler *handler.WebSocketHandler
	creditService    *service.CreditService
	cfg              *config.Config
}

func NewRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	avatarHandler *handler.AvatarHandler,
	storyHandler *handler.StoryHandler,
	videoHandler *handler.VideoHandler,
	rosterHandler *handler.RosterHandler,
	websocketHandler *handler.WebSocketHandler,
	creditService *service.CreditService,
	cfg *config.Config,
) *Router {
	return &Router{
		authHandler:      authHandler,
		userHandler:      userHandler,
		avatarHandler:    avatarHandler,
		storyHandler:     storyHandler,
		videoHandler:     videoHandler,
		rosterHandler:    rosterHandler,
		websocketHandler: websocketHandler,
		creditService:    creditService,
		cfg:              cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(r.cfg.CORS))

	api := engine.Group("/api/v1")
	{
		// WebSocket，渲染进度推送
		api.GET("/ws", r.websocketHandler.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/school/register", r.authHandler.RegisterSchool)
			auth.POST("/school/login", r.authHandler.SchoolLogin)
		}

		// 公开接口 - 充值包价目表
		api.GET("/packs", r.userHandler.ListPacks)

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret))
		{
			// 用户
			user := authenticated.Group("/user")
			{
				user.GET("/profile", r.userHandler.Profile)
				user.GET("/credits", r.userHandler.Credits)
			}
			authenticated.POST("/packs/buy", r.userHandler.BuyPack)

			// 卡通形象
			avatars := authenticated.Group("/avatars")
			{
				avatars.POST("", r.avatarHandler.Create)
				avatars.GET("", r.avatarHandler.List)
				avatars.DELETE("/:id", r.avatarHandler.Delete)
			}

			// 故事
			stories := authenticated.Group("/stories")
			{
				// 创建前先做额度预检，服务层会再判一次防并发
				stories.POST("", middleware.CreditCheck(r.creditService), r.storyHandler.Create)
				stories.GET("", r.storyHandler.List)
				stories.GET("/:id", r.storyHandler.Get)
				stories.DELETE("/:id", r.storyHandler.Delete)
				stories.POST("/:id/chapters/:index/illustrate", r.storyHandler.Illustrate)
				stories.POST("/:id/chapters/:index/narrate", r.storyHandler.Narrate)
				stories.GET("/:id/audiobook", r.storyHandler.ExportAudiobook)
				stories.GET("/:id/booklet", r.storyHandler.ExportBooklet)
				stories.POST("/:id/video", r.videoHandler.Start)
				stories.GET("/:id/video", r.videoHandler.Status)
			}

			// 学校名册
			school := authenticated.Group("/school")
			{
				school.GET("/roster", r.rosterHandler.Get)
				school.PUT("/roster", r.rosterHandler.Assign)
			}
		}
	}

	return engine
}
