package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/qs3c/fable_go_server/config"
	"github.com/qs3c/fable_go_server/internal/api"
	"github.com/qs3c/fable_go_server/internal/api/handler"
	"github.com/qs3c/fable_go_server/internal/database"
	"github.com/qs3c/fable_go_server/internal/pkg/ai"
	"github.com/qs3c/fable_go_server/internal/pkg/cron"
	"github.com/qs3c/fable_go_server/internal/pkg/oss"
	"github.com/qs3c/fable_go_server/internal/pkg/pubsub"
	"github.com/qs3c/fable_go_server/internal/pkg/queue"
	"github.com/qs3c/fable_go_server/internal/pkg/ws"
	"github.com/qs3c/fable_go_server/internal/repository"
	"github.com/qs3c/fable_go_server/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	// 初始化 OSS
	ossClient, err := oss.NewClient(&cfg.OSS)
	if err != nil {
		log.Fatalf("Failed to init OSS client: %v", err)
	}

	// 初始化生成客户端。密钥缺失时服务照常启动，
	// 生成接口返回配置错误引导用户补齐密钥
	ctx := context.Background()
	var vision service.VisionAnalyzer
	var stories service.StoryGenerator
	var images service.ImageGenerator
	var speech service.SpeechGenerator
	aiClient, err := ai.NewClient(ctx, &cfg.Gemini)
	if err != nil {
		log.Printf("Warning: generation client unavailable: %v", err)
		fallback := unconfiguredAI{}
		vision, stories, images, speech = fallback, fallback, fallback, fallback
	} else {
		vision, stories, images, speech = aiClient, aiClient, aiClient, aiClient
	}

	// 渲染任务队列
	renderQueue := queue.NewQueue(rdb, cfg.Queue.RenderQueue)

	// WebSocket Hub + 渲染进度订阅
	wsHub := ws.NewHub()
	subscriber := pubsub.NewSubscriber(rdb)
	go func() {
		err := subscriber.Subscribe(ctx, func(msg *pubsub.ProgressMessage) {
			if err := wsHub.SendToUser(msg.UserID, &ws.Message{Type: msg.Type, Data: msg}); err != nil {
				log.Printf("Failed to forward progress to user %d: %v", msg.UserID, err)
			}
		})
		if err != nil {
			log.Printf("Progress subscription stopped: %v", err)
		}
	}()

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	avatarRepo := repository.NewAvatarRepository(db)
	storyRepo := repository.NewStoryRepository(db)
	jobRepo := repository.NewRenderJobRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)

	// 初始化 Service
	authService := service.NewAuthService(userRepo, cfg)
	creditService := service.NewCreditService(userRepo, purchaseRepo, cfg)
	avatarService := service.NewAvatarService(avatarRepo, vision, images, ossClient)
	storyService := service.NewStoryService(
		storyRepo, avatarRepo, creditService,
		stories, images, speech, ossClient,
		fetchHTTPImage,
	)
	renderService := service.NewRenderService(jobRepo, storyService, renderQueue)
	rosterService := service.NewRosterService(rosterRepo, avatarService, userRepo)

	// 初始化 Handler
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(authService, creditService)
	avatarHandler := handler.NewAvatarHandler(avatarService)
	storyHandler := handler.NewStoryHandler(storyService)
	videoHandler := handler.NewVideoHandler(renderService)
	rosterHandler := handler.NewRosterHandler(rosterService)
	websocketHandler := handler.NewWebSocketHandler(wsHub, cfg.JWT.Secret)

	// 定时任务：月度额度重置 + 卡死渲染任务清理
	cronService := cron.NewService(creditService, jobRepo)
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Router
	router := api.NewRouter(
		authHandler,
		userHandler,
		avatarHandler,
		storyHandler,
		videoHandler,
		rosterHandler,
		websocketHandler,
		creditService,
		cfg,
	)
	engine := router.Setup()

	// 启动服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("Server starting on %s", addr)
	if err := engine.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// unconfiguredAI 密钥缺失时的占位实现，所有生成操作返回配置错误
type unconfiguredAI struct{}

func (unconfiguredAI) DescribeImage(ctx context.Context, imageData []byte, format string) (string, error) {
	return "", ai.ErrNotConfigured
}

func (unconfiguredAI) SynthesizeStory(ctx context.Context, req *ai.StoryRequest) (*ai.StoryResult, error) {
	return nil, ai.ErrNotConfigured
}

func (unconfiguredAI) SynthesizeImage(ctx context.Context, prompt string) ([]byte, error) {
	return nil, ai.ErrNotConfigured
}

func (unconfiguredAI) SynthesizeSpeech(ctx context.Context, text string) (string, error) {
	return "", ai.ErrNotConfigured
}

// fetchHTTPImage 绘本导出时拉取已生成的章节插画
func fetchHTTPImage(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 20<<20))
}
