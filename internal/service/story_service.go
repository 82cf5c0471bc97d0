package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/internal/model"
	"github.com/qs3c/fable_go_server/internal/model/dto"
	"github.com/qs3c/fable_go_server/internal/pkg/ai"
	"github.com/qs3c/fable_go_server/internal/pkg/pdfbook"
	"github.com/qs3c/fable_go_server/internal/pkg/wav"
	"github.com/qs3c/fable_go_server/internal/repository"
)

var (
	ErrStoryNotFound     = errors.New("故事不存在")
	ErrStoryPermission   = errors.New("无权操作此故事")
	ErrInvalidCharacters = errors.New("角色数量不合法")
	ErrInvalidTheme      = errors.New("故事主题不能为空")
	ErrInvalidGoal       = errors.New("教学目标不能为空")
	ErrChapterIndex      = errors.New("章节序号不合法")
	ErrSchoolOnly        = errors.New("教学版故事仅限学校账号")
)

// 普通故事最多选 3 个角色，教学版 1 名老师加 1 到 5 名学生
const (
	maxStoryCharacters = 3
	maxStudentsPerTale = 5
)

type StoryService struct {
	storyRepo     *repository.StoryRepository
	avatarRepo    *repository.AvatarRepository
	creditService *CreditService
	stories       StoryGenerator
	images        ImageGenerator
	speech        SpeechGenerator
	store         ImageStore
	fetchImage    pdfbook.ImageFetcher
}

func NewStoryService(
	storyRepo *repository.StoryRepository,
	avatarRepo *repository.AvatarRepository,
	creditService *CreditService,
	stories StoryGenerator,
	images ImageGenerator,
	speech SpeechGenerator,
	store ImageStore,
	fetchImage pdfbook.ImageFetcher,
) *StoryService {
	return &StoryService{
		storyRepo:     storyRepo,
		avatarRepo:    avatarRepo,
		creditService: creditService,
		stories:       stories,
		images:        images,
		speech:        speech,
		store:         store,
		fetchImage:    fetchImage,
	}
}

// Create 创建故事。先过额度闸门，生成成功后才扣账，
// 生成失败不消耗任何额度
func (s *StoryService) Create(ctx context.Context, userID int64, req *dto.CreateStoryRequest) (*dto.StoryDetail, error) {
	user, characterIDs, err := s.validateCreate(userID, req)
	if err != nil {
		return nil, err
	}

	decision := s.creditService.Evaluate(user)
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrCreditExhausted, decision.Reason)
	}

	avatars, err := s.resolveOwnedAvatars(userID, characterIDs)
	if err != nil {
		return nil, err
	}

	descriptions := make([]string, 0, len(avatars))
	for _, a := range avatars {
		descriptions = append(descriptions, a.Description)
	}

	result, err := s.stories.SynthesizeStory(ctx, &ai.StoryRequest{
		Theme:                 req.Theme,
		CharacterDescriptions: descriptions,
		Educational:           req.Educational,
		EducationalGoal:       req.EducationalGoal,
	})
	if err != nil {
		return nil, err
	}

	chapters := make(model.ChapterList, 0, len(result.Chapters))
	for _, ch := range result.Chapters {
		chapters = append(chapters, model.Chapter{
			Title:        ch.Title,
			Text:         ch.Text,
			VisualPrompt: ch.VisualPrompt,
		})
	}

	story := &model.Story{
		UserID:          userID,
		Title:           result.Title,
		Theme:           req.Theme,
		Chapters:        chapters,
		CharacterIDs:    characterIDs,
		IsPremium:       decision.Premium,
		IsEducational:   req.Educational,
		EducationalGoal: req.EducationalGoal,
	}
	if err := s.storyRepo.Create(story); err != nil {
		return nil, err
	}

	if err := s.creditService.Consume(userID, decision.CreditType); err != nil {
		// 故事已经落库，扣账失败只记日志
		log.Printf("failed to consume %s credit for user %d: %v", decision.CreditType, userID, err)
	}

	return buildStoryDetail(story), nil
}

func (s *StoryService) validateCreate(userID int64, req *dto.CreateStoryRequest) (*model.User, []int64, error) {
	user, err := s.creditService.userRepo.GetByID(userID)
	if err != nil {
		return nil, nil, err
	}

	if req.Educational {
		if !user.IsSchoolUser {
			return nil, nil, ErrSchoolOnly
		}
		if strings.TrimSpace(req.EducationalGoal) == "" {
			return nil, nil, ErrInvalidGoal
		}
		if req.TeacherID == 0 || len(req.StudentIDs) < 1 || len(req.StudentIDs) > maxStudentsPerTale {
			return nil, nil, ErrInvalidCharacters
		}
		ids := append([]int64{req.TeacherID}, req.StudentIDs...)
		return user, ids, nil
	}

	if strings.TrimSpace(req.Theme) == "" {
		return nil, nil, ErrInvalidTheme
	}
	if len(req.CharacterIDs) < 1 || len(req.CharacterIDs) > maxStoryCharacters {
		return nil, nil, ErrInvalidCharacters
	}
	return user, req.CharacterIDs, nil
}

// resolveOwnedAvatars 按请求顺序取角色并校验归属
func (s *StoryService) resolveOwnedAvatars(userID int64, ids []int64) ([]*model.Avatar, error) {
	avatars, err := s.avatarRepo.GetByIDs(ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*model.Avatar, len(avatars))
	for _, a := range avatars {
		if a.UserID != userID {
			return nil, ErrAvatarPermission
		}
		byID[a.ID] = a
	}

	ordered := make([]*model.Avatar, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			return nil, ErrAvatarNotFound
		}
		ordered = append(ordered, a)
	}
	return ordered, nil
}

// Get 取故事详情，校验归属
func (s *StoryService) Get(userID, storyID int64) (*dto.StoryDetail, error) {
	story, err := s.getOwned(userID, storyID)
	if err != nil {
		return nil, err
	}
	return buildStoryDetail(story), nil
}

// List 用户的故事列表
func (s *StoryService) List(userID int64, page, pageSize int, search string) ([]*dto.StoryListItem, int64, error) {
	stories, total, err := s.storyRepo.ListByUserID(userID, page, pageSize, search)
	if err != nil {
		return nil, 0, err
	}

	items := make([]*dto.StoryListItem, 0, len(stories))
	for _, st := range stories {
		item := &dto.StoryListItem{
			ID:            st.ID,
			Title:         st.Title,
			Theme:         st.Theme,
			IsPremium:     st.IsPremium,
			IsEducational: st.IsEducational,
			ChapterCount:  len(st.Chapters),
			CreatedAt:     st.CreatedAt,
		}
		if len(st.Chapters) > 0 {
			item.CoverImageURL = st.Chapters[0].ImageURL
		}
		items = append(items, item)
	}
	return items, total, nil
}

// Delete 删除故事
func (s *StoryService) Delete(userID, storyID int64) error {
	if _, err := s.getOwned(userID, storyID); err != nil {
		return err
	}
	return s.storyRepo.Delete(storyID)
}

// IllustrateChapter 按需补齐单章插画。已有插画直接返回，
// 不会重新生成
func (s *StoryService) IllustrateChapter(ctx context.Context, userID, storyID int64, index int) (*dto.IllustrateResponse, error) {
	story, err := s.getOwned(userID, storyID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(story.Chapters) {
		return nil, ErrChapterIndex
	}

	chapter := story.Chapters[index]
	if chapter.ImageURL != "" {
		return &dto.IllustrateResponse{Index: index, ImageURL: chapter.ImageURL}, nil
	}

	descriptions, err := s.characterDescriptions(story)
	if err != nil {
		return nil, err
	}

	imageData, err := s.images.SynthesizeImage(ctx, ai.BuildIllustrationPrompt(chapter.VisualPrompt, descriptions))
	if err != nil {
		return nil, err
	}

	imageURL, err := s.store.UploadChapterImage(storyID, index, imageData)
	if err != nil {
		return nil, err
	}

	story.Chapters[index].ImageURL = imageURL
	if err := s.storyRepo.UpdateChapters(storyID, story.Chapters); err != nil {
		return nil, err
	}

	return &dto.IllustrateResponse{Index: index, ImageURL: imageURL}, nil
}

// NarrateChapter 合成单章旁白。已有音频不再重新合成，
// 合成失败保持原状
func (s *StoryService) NarrateChapter(ctx context.Context, userID, storyID int64, index int) (*dto.NarrateResponse, error) {
	story, err := s.getOwned(userID, storyID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(story.Chapters) {
		return nil, ErrChapterIndex
	}

	if story.Chapters[index].AudioData != "" {
		return &dto.NarrateResponse{Index: index, Cached: true}, nil
	}

	audio, err := s.speech.SynthesizeSpeech(ctx, story.Chapters[index].Text)
	if err != nil {
		return nil, err
	}

	story.Chapters[index].AudioData = audio
	if err := s.storyRepo.UpdateChapters(storyID, story.Chapters); err != nil {
		return nil, err
	}

	return &dto.NarrateResponse{Index: index, Cached: false}, nil
}

// ExportAudiobook 导出整本有声书。缺旁白的章节先补齐并写回，
// 然后按章节顺序拼成一个 WAV 文件
func (s *StoryService) ExportAudiobook(ctx context.Context, userID, storyID int64) ([]byte, string, error) {
	story, err := s.getOwned(userID, storyID)
	if err != nil {
		return nil, "", err
	}

	changed := false
	for i, ch := range story.Chapters {
		if ch.AudioData != "" {
			continue
		}
		audio, err := s.speech.SynthesizeSpeech(ctx, ch.Text)
		if err != nil {
			return nil, "", err
		}
		story.Chapters[i].AudioData = audio
		changed = true
	}
	if changed {
		if err := s.storyRepo.UpdateChapters(storyID, story.Chapters); err != nil {
			return nil, "", err
		}
	}

	fragments := make([]string, 0, len(story.Chapters))
	for _, ch := range story.Chapters {
		fragments = append(fragments, ch.AudioData)
	}

	data, err := wav.ConcatBase64(fragments)
	if err != nil {
		return nil, "", err
	}
	return data, story.Title, nil
}

// ExportBooklet 导出 PDF 绘本，插图取不到时用占位块
func (s *StoryService) ExportBooklet(userID, storyID int64) ([]byte, string, error) {
	story, err := s.getOwned(userID, storyID)
	if err != nil {
		return nil, "", err
	}

	authorLine := ""
	if avatars, err := s.avatarRepo.GetByIDs(story.CharacterIDs); err == nil && len(avatars) > 0 {
		names := make([]string, 0, len(avatars))
		for _, a := range avatars {
			names = append(names, a.Name)
		}
		authorLine = "Com " + strings.Join(names, ", ")
	}

	booklet := pdfbook.Booklet{
		Title:      story.Title,
		AuthorLine: authorLine,
	}
	for _, ch := range story.Chapters {
		booklet.Chapters = append(booklet.Chapters, pdfbook.Chapter{
			Title:    ch.Title,
			Text:     ch.Text,
			ImageURL: ch.ImageURL,
		})
	}

	data, err := pdfbook.Generate(booklet, s.fetchImage)
	if err != nil {
		return nil, "", err
	}
	return data, story.Title, nil
}

// GetOwned 取故事并校验归属，渲染服务复用
func (s *StoryService) GetOwned(userID, storyID int64) (*model.Story, error) {
	return s.getOwned(userID, storyID)
}

func (s *StoryService) getOwned(userID, storyID int64) (*model.Story, error) {
	story, err := s.storyRepo.GetByID(storyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoryNotFound
		}
		return nil, err
	}
	if story.UserID != userID {
		return nil, ErrStoryPermission
	}
	return story, nil
}

func (s *StoryService) characterDescriptions(story *model.Story) ([]string, error) {
	avatars, err := s.avatarRepo.GetByIDs(story.CharacterIDs)
	if err != nil {
		return nil, err
	}
	descriptions := make([]string, 0, len(avatars))
	for _, a := range avatars {
		descriptions = append(descriptions, a.Description)
	}
	return descriptions, nil
}

func buildStoryDetail(story *model.Story) *dto.StoryDetail {
	detail := &dto.StoryDetail{
		ID:              story.ID,
		Title:           story.Title,
		Theme:           story.Theme,
		IsPremium:       story.IsPremium,
		IsEducational:   story.IsEducational,
		EducationalGoal: story.EducationalGoal,
		CharacterIDs:    story.CharacterIDs,
		CreatedAt:       story.CreatedAt,
	}
	for i, ch := range story.Chapters {
		detail.Chapters = append(detail.Chapters, dto.ChapterView{
			Index:        i,
			Title:        ch.Title,
			Text:         ch.Text,
			ImageURL:     ch.ImageURL,
			HasNarration: ch.AudioData != "",
		})
	}
	return detail
}
