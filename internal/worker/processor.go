package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/qs3c/fable_go_server/config"
	"github.com/qs3c/fable_go_server/internal/model"
	"github.com/qs3c/fable_go_server/internal/pkg/pubsub"
	"github.com/qs3c/fable_go_server/internal/pkg/queue"
	"github.com/qs3c/fable_go_server/internal/pkg/render"
	"github.com/qs3c/fable_go_server/internal/repository"
)

// 渲染输出分辨率
const (
	videoWidth  = 1280
	videoHeight = 720
)

// RenderBackend 渲染服务后端，render.Client 实现
type RenderBackend interface {
	Submit(ctx context.Context, timeline *render.Timeline) (string, error)
	Poll(ctx context.Context, jobID string) (*render.JobStatus, error)
}

// ProgressPublisher 进度推送口，pubsub.Publisher 实现
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, msg *pubsub.ProgressMessage) error
}

// Processor 渲染任务处理器：提交时间线后按固定间隔轮询直到终态
type Processor struct {
	jobRepo      *repository.RenderJobRepository
	storyRepo    *repository.StoryRepository
	backend      RenderBackend
	publisher    ProgressPublisher
	cfg          *config.Config
	pollInterval time.Duration
}

// NewProcessor 创建任务处理器
func NewProcessor(
	jobRepo *repository.RenderJobRepository,
	storyRepo *repository.StoryRepository,
	backend RenderBackend,
	publisher ProgressPublisher,
	cfg *config.Config,
) *Processor {
	return &Processor{
		jobRepo:      jobRepo,
		storyRepo:    storyRepo,
		backend:      backend,
		publisher:    publisher,
		cfg:          cfg,
		pollInterval: time.Duration(cfg.Render.PollIntervalSeconds) * time.Second,
	}
}

// Process 处理一条渲染消息
func (p *Processor) Process(ctx context.Context, msg *queue.RenderMessage) error {
	job, err := p.jobRepo.GetByID(msg.JobID)
	if err != nil {
		return fmt.Errorf("failed to get render job: %w", err)
	}
	if job.IsTerminal() {
		log.Printf("render job %d already terminal (%s), skipping", job.ID, job.Status)
		return nil
	}

	story, err := p.storyRepo.GetByID(msg.StoryID)
	if err != nil {
		return p.fail(ctx, job, msg, fmt.Errorf("failed to get story: %w", err))
	}

	publishProgress := func(step, status, videoURL, errMsg string) {
		p.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
			UserID:   msg.UserID,
			StoryID:  msg.StoryID,
			JobID:    msg.JobID,
			Status:   status,
			Step:     step,
			VideoURL: videoURL,
			Error:    errMsg,
		})
	}

	now := time.Now()
	job.Status = model.RenderStatusSubmitted
	job.StartedAt = &now
	p.jobRepo.Update(job)
	publishProgress(pubsub.StepSubmitting, "processing", "", "")

	externalID, err := p.backend.Submit(ctx, buildTimeline(story, p.cfg))
	if err != nil {
		// 提交被拒绝或配置缺失都是终态，允许用户重新发起
		if errors.Is(err, render.ErrSubmitRejected) || errors.Is(err, render.ErrNotConfigured) {
			return p.fail(ctx, job, msg, err)
		}
		return p.fail(ctx, job, msg, fmt.Errorf("render submit failed: %w", err))
	}

	job.ExternalID = externalID
	job.Status = model.RenderStatusRendering
	p.jobRepo.Update(job)
	publishProgress(pubsub.StepRendering, "processing", "", "")

	return p.pollUntilTerminal(ctx, job, msg, publishProgress)
}

// pollUntilTerminal 固定间隔轮询。单次轮询失败容忍并等下一跳，
// 超过最大次数按超时失败。任何出口都会停掉 ticker
func (p *Processor) pollUntilTerminal(ctx context.Context, job *model.RenderJob, msg *queue.RenderMessage, publishProgress func(step, status, videoURL, errMsg string)) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		attempts++
		status, err := p.backend.Poll(ctx, job.ExternalID)
		if err != nil {
			log.Printf("render job %d poll attempt %d failed: %v", job.ID, attempts, err)
			if attempts >= p.cfg.Render.MaxPollAttempts {
				return p.fail(ctx, job, msg, errors.New("render polling exceeded attempt limit"))
			}
			continue
		}

		job.PollCount = attempts
		p.jobRepo.UpdateFields(job.ID, map[string]interface{}{"poll_count": attempts})

		switch status.Status {
		case render.StatusDone:
			completedAt := time.Now()
			job.Status = model.RenderStatusDone
			job.VideoURL = status.URL
			job.CompletedAt = &completedAt
			if err := p.jobRepo.Update(job); err != nil {
				return err
			}
			publishProgress(pubsub.StepDone, "completed", status.URL, "")
			log.Printf("render job %d completed after %d polls", job.ID, attempts)
			return nil
		case render.StatusFailed:
			reason := status.Error
			if reason == "" {
				reason = "render provider reported failure"
			}
			return p.fail(ctx, job, msg, errors.New(reason))
		}

		if attempts >= p.cfg.Render.MaxPollAttempts {
			return p.fail(ctx, job, msg, errors.New("render polling exceeded attempt limit"))
		}
	}
}

func (p *Processor) fail(ctx context.Context, job *model.RenderJob, msg *queue.RenderMessage, cause error) error {
	completedAt := time.Now()
	job.Status = model.RenderStatusFailed
	job.ErrorMessage = cause.Error()
	job.CompletedAt = &completedAt
	p.jobRepo.Update(job)

	p.publisher.PublishProgress(ctx, &pubsub.ProgressMessage{
		UserID:  msg.UserID,
		StoryID: msg.StoryID,
		JobID:   msg.JobID,
		Status:  "failed",
		Step:    pubsub.StepRendering,
		Error:   cause.Error(),
	})
	return cause
}

// buildTimeline 从故事构建声明式时间线：每章一个场景，
// 章节插画做画面，正文做字幕
func buildTimeline(story *model.Story, cfg *config.Config) *render.Timeline {
	timeline := &render.Timeline{
		Width:  videoWidth,
		Height: videoHeight,
	}
	for _, ch := range story.Chapters {
		timeline.Scenes = append(timeline.Scenes, render.Scene{
			ImageURL: ch.ImageURL,
			Caption:  ch.Text,
			Duration: float64(cfg.Render.SceneDurationSecs),
		})
	}
	return timeline
}
