package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/config"
	"github.com/qs3c/fable_go_server/internal/model"
	"github.com/qs3c/fable_go_server/internal/repository"
	"github.com/qs3c/fable_go_server/internal/service"
)

var (
	dryRun       = flag.Bool("dry-run", true, "Dry run mode, don't actually modify anything")
	resetCredits = flag.Bool("reset-credits", false, "Reset monthly credit counters for all users")
	expireJobs   = flag.Bool("expire-jobs", true, "Mark stuck render jobs as failed")
	staleHours   = flag.Int("stale-hours", 2, "Hours before a non-terminal render job counts as stuck")
)

// 一次性维护工具：月度额度重置平时由 server 内的定时任务负责，
// 这里提供手动兜底；卡死的渲染任务也可以在这里批量收尾
func main() {
	flag.Parse()

	log.Println("Starting maintenance task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := connectDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	jobRepo := repository.NewRenderJobRepository(db)
	creditService := service.NewCreditService(userRepo, purchaseRepo, cfg)

	if *expireJobs {
		cutoff := time.Now().Add(-time.Duration(*staleHours) * time.Hour)
		log.Printf("Expiring render jobs stuck since before %s...", cutoff.Format(time.RFC3339))

		if *dryRun {
			var count int64
			err := db.Model(&model.RenderJob{}).
				Where("status IN ? AND created_at < ?",
					[]string{model.RenderStatusQueued, model.RenderStatusSubmitted, model.RenderStatusRendering}, cutoff).
				Count(&count).Error
			if err != nil {
				log.Printf("Failed to count stale jobs: %v", err)
			} else {
				log.Printf("Would expire %d stale render jobs", count)
			}
		} else {
			n, err := jobRepo.ExpireStale(cutoff)
			if err != nil {
				log.Printf("Failed to expire stale jobs: %v", err)
			} else {
				log.Printf("Expired %d stale render jobs", n)
			}
		}
	}

	if *resetCredits {
		log.Println("Resetting monthly credit counters...")
		if *dryRun {
			var count int64
			if err := db.Model(&model.User{}).Count(&count).Error; err != nil {
				log.Printf("Failed to count users: %v", err)
			} else {
				log.Printf("Would reset counters for %d users", count)
			}
		} else {
			if err := creditService.ResetAllMonthly(); err != nil {
				log.Fatalf("Failed to reset monthly credits: %v", err)
			}
			log.Println("Monthly credit reset completed")
		}
	}

	if *dryRun {
		log.Println("DRY RUN MODE - nothing was modified")
		log.Println("Run with -dry-run=false to apply changes")
	} else {
		log.Println("Maintenance completed")
	}
}

// connectDB 连接数据库
func connectDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}
