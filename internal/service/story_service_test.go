package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/internal/model"
	"github.com/qs3c/fable_go_server/internal/model/dto"
	"github.com/qs3c/fable_go_server/internal/pkg/wav"
	"github.com/qs3c/fable_go_server/internal/repository"
	"github.com/qs3c/fable_go_server/internal/testutil"
)

type storyDeps struct {
	db       *gorm.DB
	svc      *StoryService
	userRepo *repository.UserRepository
	stories  *fakeStoryGen
	images   *fakeImageGen
	speech   *fakeSpeechGen
	store    *fakeStore
}

func newStoryService(t *testing.T) (*storyDeps, func()) {
	db := testutil.SetupTestDB(t)

	userRepo := repository.NewUserRepository(db)
	deps := &storyDeps{
		db:       db,
		userRepo: userRepo,
		stories:  &fakeStoryGen{},
		images:   &fakeImageGen{},
		speech:   &fakeSpeechGen{},
		store:    &fakeStore{},
	}
	credit := NewCreditService(userRepo, repository.NewPurchaseRepository(db), testConfig())
	deps.svc = NewStoryService(
		repository.NewStoryRepository(db),
		repository.NewAvatarRepository(db),
		credit,
		deps.stories,
		deps.images,
		deps.speech,
		deps.store,
		nil,
	)
	return deps, func() { testutil.CleanupTestDB(t, db) }
}

func TestStoryService_Create(t *testing.T) {
	deps, cleanup := newStoryService(t)
	defer cleanup()

	user := testutil.TestUser(t, deps.db)
	avatar := testutil.TestAvatar(t, deps.db, user.ID)

	detail, err := deps.svc.Create(context.Background(), user.ID, &dto.CreateStoryRequest{
		Theme:        "uma viagem à lua",
		CharacterIDs: []int64{avatar.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "A Grande Aventura", detail.Title)
	assert.Len(t, detail.Chapters, 4)
	// 免费用户先消耗高级体验次数
	assert.True(t, detail.IsPremium)

	found, err := deps.userRepo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.MonthlyPremiumTrialUsed)
	assert.Zero(t, found.MonthlyFreeUsed)
}

func TestStoryService_Create_DeniedBeforeGeneration(t *testing.T) {
	deps, cleanup := newStoryService(t)
	defer cleanup()

	user := testutil.TestUser(t, deps.db, testutil.WithMonthlyUsage(3, 1))
	avatar := testutil.TestAvatar(t, deps.db, user.ID)

	_, err := deps.svc.Create(context.Background(), user.ID, &dto.CreateStoryRequest{
		Theme:        "uma viagem",
		CharacterIDs: []int64{avatar.ID},
	})
	assert.ErrorIs(t, err, ErrCreditExhausted)
	// 闸门在任何生成调用之前
	assert.Zero(t, deps.stories.calls)
}

func TestStoryService_Create_NoCreditOnFailure(t *testing.T) {
	deps, cleanup := newStoryService(t)
	defer cleanup()

	user := testutil.TestUser(t, deps.db)
	avatar := testutil.TestAvatar(t, deps.db, user.ID)
	deps.stories.err = errors.New("upstream unavailable")

	_, err := deps.svc.Create(context.Background(), user.ID, &dto.CreateStoryRequest{
		Theme:        "uma viagem",
		CharacterIDs: []int64{avatar.ID},
	})
	require.Error(t, err)

	// 生成失败不扣任何额度
	found, err := deps.userRepo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Zero(t, found.MonthlyFreeUsed)
	assert.Zero(t, found.MonthlyPremiumTrialUsed)
}

func TestStoryService_Create_Validation(t *testing.T) {
	deps, cleanup := newStoryService(t)
	defer cleanup()

	user := testutil.TestUser(t, deps.db)
	a1 := testutil.TestAvatar(t, deps.db, user.ID)

	_, err := deps.svc.Create(context.Background(), user.ID, &dto.CreateStoryRequest{
		Theme:        "",
		CharacterIDs: []int64{a1.ID},
	})
	assert.ErrorIs(t, err, ErrInvalidTheme)

	_, err = deps.svc.Create(context.Background(), user.ID, &dto.CreateStoryRequest{
		Theme:        "tema",
		CharacterIDs: []int64{},
	})
	assert.ErrorIs(t, err, ErrInvalidCharacters)

	_, err = deps.svc.Create(context.Background(), user.ID, &dto.CreateStoryRequest{
		Theme:        "tema",
		CharacterIDs: []int64{a1.ID, a1.ID, a1.ID, a1.ID},
	})
	assert.ErrorIs(t, err, ErrInvalidCharacters)
}

func TestStoryService_Create_ForeignAvatarRejected(t *testing.T) {
	deps, cleanup := newStoryService(t)
	defer cleanup()

	user := testutil.TestUser(t, deps.db)
	other := testutil.TestUser(t, deps.db)
	foreign := testutil.TestAvatar(t, deps.db, other.ID)

	_, err := deps.svc.Create(context.Background(), user.ID, &dto.CreateStoryRequest{
		Theme:        "tema",
		CharacterIDs: []int64{foreign.ID},
	})
	assert.ErrorIs(t, err, ErrAvatarPermission)
}

func TestStoryService_Create_Pedagogical(t *testing.T) {
	deps, cleanup := newStoryService(t)
	defer cleanup()

	school := testutil.TestUser(t, deps.db, testutil.WithSchool("Escola Azul", 0))
	teacher := testutil.TestAvatar(t, deps.db, school.ID)
	s1 := testutil.TestAvatar(t, deps.db, school.ID)
	s2 := testutil.TestAvatar(t, deps.db, school.ID)

	detail, err := deps.svc.Create(context.Background(), school.ID, &dto.CreateStoryRequest{
		Educational:     true,
		EducationalGoal: "compartilhar é importante",
		TeacherID:       teacher.ID,
		StudentIDs:      []int64{s1.ID, s2.ID},
	})
	require.NoError(t, err)
	assert.True(t, detail.IsEducational)

	found, err := deps.userRepo.GetByID(school.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.SchoolStoriesUsed)
}

func TestStoryService_Create_PedagogicalRequiresSchool(t *testing.T) {
	deps, cleanup := newStoryService(t)
	defer cleanup()

	user := testutil.TestUser(t, deps.db)
	avatar := testutil.TestAvatar(t, deps.db, user.ID)

	_, err := deps.svc.Create(context.Background(), user.ID, &dto.CreateStoryRequest{
		Educational:     true,
		EducationalGoal: "objetivo",
		TeacherID:       avatar.ID,
		StudentIDs:      []int64{avatar.ID},
	})
	assert.ErrorIs(t, err, ErrSchoolOnly)
}

func TestStoryService_IllustrateChapter_Lazy(t *testing.T) {
	deps, cleanup := newStoryService(t)
	defer cleanup()

	user := testutil.TestUser(t, deps.db)
	avatar := testutil.TestAvatar(t, deps.db, user.ID)
	story := testutil.TestStory(t, deps.db, user.ID, testutil.WithCharacters(avatar.ID))

	resp, err := deps.svc.IllustrateChapter(context.Background(), user.ID, story.ID, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ImageURL)
	assert.Equal(t, 1, deps.images.calls)

	// 已有插画直接返回，不再生成
	again, err := deps.svc.IllustrateChapter(context.Background(), user.ID, story.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, resp.ImageURL, again.ImageURL)
	assert.Equal(t, 1, deps.images.calls)
}

func TestStoryService_NarrateChapter_Idempotent(t *testing.T) {
	deps, cleanup := newStoryService(t)
	defer cleanup()

	user := testutil.TestUser(t, deps.db)
	story := testutil.TestStory(t, deps.db, user.ID)

	resp, err := deps.svc.NarrateChapter(context.Background(), user.ID, story.ID, 1)
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Equal(t, 1, deps.speech.calls)

	// 第二次请求命中缓存，合成器只被调用一次
	resp, err = deps.svc.NarrateChapter(context.Background(), user.ID, story.ID, 1)
	require.NoError(t, err)
	assert.True(t, resp.Cached)
	assert.Equal(t, 1, deps.speech.calls)
}

func TestStoryService_NarrateChapter_FailureKeepsState(t *testing.T) {
	deps, cleanup := newStoryService(t)
	defer cleanup()

	user := testutil.TestUser(t, deps.db)
	story := testutil.TestStory(t, deps.db, user.ID)
	deps.speech.err = errors.New("speech unavailable")

	_, err := deps.svc.NarrateChapter(context.Background(), user.ID, story.ID, 0)
	require.Error(t, err)

	detail, err := deps.svc.Get(user.ID, story.ID)
	require.NoError(t, err)
	assert.False(t, detail.Chapters[0].HasNarration)
}

func TestStoryService_NarrateChapter_BadIndex(t *testing.T) {
	deps, cleanup := newStoryService(t)
	defer cleanup()

	user := testutil.TestUser(t, deps.db)
	story := testutil.TestStory(t, deps.db, user.ID)

	_, err := deps.svc.NarrateChapter(context.Background(), user.ID, story.ID, 99)
	assert.ErrorIs(t, err, ErrChapterIndex)
}

func TestStoryService_ExportAudiobook(t *testing.T) {
	deps, cleanup := newStoryService(t)
	defer cleanup()

	user := testutil.TestUser(t, deps.db)
	story := testutil.TestStory(t, deps.db, user.ID)

	data, title, err := deps.svc.ExportAudiobook(context.Background(), user.ID, story.ID)
	require.NoError(t, err)
	assert.Equal(t, story.Title, title)
	// 四章旁白全部即时补齐并写回
	assert.Equal(t, model.ChapterCount, deps.speech.calls)

	pcm, err := wav.Decode(data)
	require.NoError(t, err)
	assert.NotEmpty(t, pcm)

	// 再导出一次复用已缓存的旁白
	_, _, err = deps.svc.ExportAudiobook(context.Background(), user.ID, story.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ChapterCount, deps.speech.calls)
}

func TestStoryService_Get_Ownership(t *testing.T) {
	deps, cleanup := newStoryService(t)
	defer cleanup()

	owner := testutil.TestUser(t, deps.db)
	intruder := testutil.TestUser(t, deps.db)
	story := testutil.TestStory(t, deps.db, owner.ID)

	_, err := deps.svc.Get(intruder.ID, story.ID)
	assert.ErrorIs(t, err, ErrStoryPermission)

	_, err = deps.svc.Get(owner.ID, 99999)
	assert.ErrorIs(t, err, ErrStoryNotFound)
}

func TestStoryService_Delete(t *testing.T) {
	deps, cleanup := newStoryService(t)
	defer cleanup()

	user := testutil.TestUser(t, deps.db)
	story := testutil.TestStory(t, deps.db, user.ID)

	require.NoError(t, deps.svc.Delete(user.ID, story.ID))

	_, err := deps.svc.Get(user.ID, story.ID)
	assert.ErrorIs(t, err, ErrStoryNotFound)
}
