package cron

import (
	"log"
	"time"

	"github.com/qs3c/fable_go_server/internal/repository"
	"github.com/qs3c/fable_go_server/internal/service"
)

// staleJobAge 渲染任务超过这个时长还没到终态就按失败处理
const staleJobAge = 2 * time.Hour

type Service struct {
	creditService *service.CreditService
	jobRepo       *repository.RenderJobRepository
	stopChan      chan struct{}
}

func NewService(creditService *service.CreditService, jobRepo *repository.RenderJobRepository) *Service {
	return &Service{
		creditService: creditService,
		jobRepo:       jobRepo,
		stopChan:      make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runMonthlyReset()
	go s.runStaleJobSweep()
	log.Println("Cron service started (monthly reset + stale job sweep)")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Cron service stopped")
}

// runMonthlyReset 每月 1 号零点重置所有用户的月度额度。
// 登录时也会懒重置，这里兜底长期在线的会话
func (s *Service) runMonthlyReset() {
	for {
		now := time.Now().UTC()
		nextFirst := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		timer := time.NewTimer(nextFirst.Sub(now))

		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			s.resetMonthlyCredits()
		}
	}
}

func (s *Service) resetMonthlyCredits() {
	log.Println("Starting monthly credit reset...")
	if err := s.creditService.ResetAllMonthly(); err != nil {
		log.Printf("Failed to reset monthly credits: %v", err)
		return
	}
	log.Println("Monthly credit reset completed")
}

// runStaleJobSweep 每小时把卡住的渲染任务标记为失败
func (s *Service) runStaleJobSweep() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweepStaleJobs()
		}
	}
}

func (s *Service) sweepStaleJobs() {
	cutoff := time.Now().Add(-staleJobAge)
	n, err := s.jobRepo.ExpireStale(cutoff)
	if err != nil {
		log.Printf("Failed to expire stale render jobs: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Expired %d stale render jobs", n)
	}
}
