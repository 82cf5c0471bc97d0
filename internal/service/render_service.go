package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/internal/model"
	"github.com/qs3c/fable_go_server/internal/model/dto"
	"github.com/qs3c/fable_go_server/internal/pkg/queue"
	"github.com/qs3c/fable_go_server/internal/repository"
)

var ErrNoRenderJob = errors.New("该故事还没有渲染任务")

// JobEnqueuer 渲染队列投递口，queue.Queue 实现
type JobEnqueuer interface {
	Push(ctx context.Context, msg *queue.RenderMessage) error
}

type RenderService struct {
	jobRepo      *repository.RenderJobRepository
	storyService *StoryService
	queue        JobEnqueuer
}

func NewRenderService(jobRepo *repository.RenderJobRepository, storyService *StoryService, q JobEnqueuer) *RenderService {
	return &RenderService{
		jobRepo:      jobRepo,
		storyService: storyService,
		queue:        q,
	}
}

// Start 为故事发起视频渲染。同一故事同时只允许一个在途任务，
// 重复发起直接返回在途任务而不是报错
func (s *RenderService) Start(ctx context.Context, userID, storyID int64) (*dto.RenderJobView, error) {
	if _, err := s.storyService.GetOwned(userID, storyID); err != nil {
		return nil, err
	}

	if active, err := s.jobRepo.GetActiveByStoryID(storyID); err == nil {
		return buildRenderJobView(active), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	job := &model.RenderJob{
		StoryID: storyID,
		UserID:  userID,
		Status:  model.RenderStatusQueued,
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, err
	}

	msg := &queue.RenderMessage{JobID: job.ID, StoryID: storyID, UserID: userID}
	if err := s.queue.Push(ctx, msg); err != nil {
		// 投递失败的任务直接置为失败，允许用户重新发起
		s.jobRepo.UpdateFields(job.ID, map[string]interface{}{
			"status":        model.RenderStatusFailed,
			"error_message": "failed to enqueue render job",
		})
		return nil, err
	}

	return buildRenderJobView(job), nil
}

// Status 故事最近一次渲染任务的状态
func (s *RenderService) Status(userID, storyID int64) (*dto.RenderJobView, error) {
	if _, err := s.storyService.GetOwned(userID, storyID); err != nil {
		return nil, err
	}

	job, err := s.jobRepo.GetLatestByStoryID(storyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRenderJob
		}
		return nil, err
	}
	return buildRenderJobView(job), nil
}

func buildRenderJobView(job *model.RenderJob) *dto.RenderJobView {
	return &dto.RenderJobView{
		ID:          job.ID,
		StoryID:     job.StoryID,
		Status:      job.Status,
		VideoURL:    job.VideoURL,
		Error:       job.ErrorMessage,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}
}
