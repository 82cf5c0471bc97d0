package service

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/internal/model"
	"github.com/qs3c/fable_go_server/internal/model/dto"
	"github.com/qs3c/fable_go_server/internal/pkg/ai"
	"github.com/qs3c/fable_go_server/internal/repository"
)

var (
	ErrAvatarNotFound   = errors.New("角色不存在")
	ErrAvatarPermission = errors.New("无权操作此角色")
)

type AvatarService struct {
	avatarRepo *repository.AvatarRepository
	vision     VisionAnalyzer
	images     ImageGenerator
	store      ImageStore
}

func NewAvatarService(avatarRepo *repository.AvatarRepository, vision VisionAnalyzer, images ImageGenerator, store ImageStore) *AvatarService {
	return &AvatarService{
		avatarRepo: avatarRepo,
		vision:     vision,
		images:     images,
		store:      store,
	}
}

// Create 从照片生成风格化角色：视觉分析产出外貌描述，
// 再按描述合成卡通形象。视觉分析失败降级为通用描述，
// 不因此中断整个创建流程
func (s *AvatarService) Create(ctx context.Context, userID int64, name string, photo []byte, format string) (*dto.AvatarView, error) {
	description, err := s.vision.DescribeImage(ctx, photo, format)
	if err != nil {
		if ai.IsUpstreamRevoked(err) {
			return nil, err
		}
		log.Printf("vision analysis failed for user %d, using fallback description: %v", userID, err)
		description = ai.FallbackDescription
	}

	imageData, err := s.images.SynthesizeImage(ctx, ai.BuildAvatarPrompt(description))
	if err != nil {
		return nil, err
	}

	imageURL, err := s.store.UploadAvatarImage(userID, imageData)
	if err != nil {
		return nil, err
	}

	avatar := &model.Avatar{
		UserID:      userID,
		Name:        name,
		ImageURL:    imageURL,
		Description: description,
	}
	if err := s.avatarRepo.Create(avatar); err != nil {
		return nil, err
	}

	return buildAvatarView(avatar), nil
}

// List 用户的全部角色
func (s *AvatarService) List(userID int64) ([]*dto.AvatarView, error) {
	avatars, err := s.avatarRepo.ListByUserID(userID)
	if err != nil {
		return nil, err
	}

	views := make([]*dto.AvatarView, 0, len(avatars))
	for _, a := range avatars {
		views = append(views, buildAvatarView(a))
	}
	return views, nil
}

// Delete 删除角色，校验归属
func (s *AvatarService) Delete(userID, avatarID int64) error {
	avatar, err := s.avatarRepo.GetByID(avatarID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAvatarNotFound
		}
		return err
	}
	if avatar.UserID != userID {
		return ErrAvatarPermission
	}
	return s.avatarRepo.Delete(avatarID)
}

// GetOwned 取角色并校验归属
func (s *AvatarService) GetOwned(userID, avatarID int64) (*model.Avatar, error) {
	avatar, err := s.avatarRepo.GetByID(avatarID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAvatarNotFound
		}
		return nil, err
	}
	if avatar.UserID != userID {
		return nil, ErrAvatarPermission
	}
	return avatar, nil
}

func buildAvatarView(a *model.Avatar) *dto.AvatarView {
	return &dto.AvatarView{
		ID:          a.ID,
		Name:        a.Name,
		ImageURL:    a.ImageURL,
		Description: a.Description,
		CreatedAt:   a.CreatedAt,
	}
}
