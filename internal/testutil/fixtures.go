package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/internal/model"
)

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	contact := fmt.Sprintf("test_%d@example.com", time.Now().UnixNano())
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Name:          fmt.Sprintf("testuser_%d", time.Now().UnixNano()%10000),
		Contact:       &contact,
		PasswordHash:  &passwordHash,
		Plan:          model.PlanFree,
		LastResetDate: time.Now(),
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithName 设置用户名
func WithName(name string) func(*model.User) {
	return func(u *model.User) {
		u.Name = name
	}
}

// WithContact 设置联系方式
func WithContact(contact string) func(*model.User) {
	return func(u *model.User) {
		u.Contact = &contact
	}
}

// WithPlan 设置套餐和余额
func WithPlan(plan string, credits int) func(*model.User) {
	return func(u *model.User) {
		u.Plan = plan
		u.Credits = credits
	}
}

// WithMonthlyUsage 设置本月已用计数
func WithMonthlyUsage(freeUsed, trialUsed int) func(*model.User) {
	return func(u *model.User) {
		u.MonthlyFreeUsed = freeUsed
		u.MonthlyPremiumTrialUsed = trialUsed
	}
}

// WithLastReset 设置上次计数器清零时间
func WithLastReset(tm time.Time) func(*model.User) {
	return func(u *model.User) {
		u.LastResetDate = tm
	}
}

// WithSchool 设置为学校账号
func WithSchool(schoolName string, storiesUsed int) func(*model.User) {
	return func(u *model.User) {
		u.IsSchoolUser = true
		u.SchoolName = schoolName
		u.SchoolStoriesUsed = storiesUsed
		u.Plan = model.PlanEnterprise
		u.MaxStudents = 30
	}
}

// TestAvatar 创建测试角色
func TestAvatar(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Avatar)) *model.Avatar {
	t.Helper()

	avatar := &model.Avatar{
		UserID:      userID,
		Name:        fmt.Sprintf("Avatar %d", time.Now().UnixNano()%10000),
		ImageURL:    "https://cdn.example.com/avatar.png",
		Description: "a cheerful child with curly brown hair",
	}

	for _, opt := range opts {
		opt(avatar)
	}

	if err := db.Create(avatar).Error; err != nil {
		t.Fatalf("Failed to create test avatar: %v", err)
	}

	return avatar
}

// WithAvatarName 设置角色名
func WithAvatarName(name string) func(*model.Avatar) {
	return func(a *model.Avatar) {
		a.Name = name
	}
}

// TestStory 创建测试故事
func TestStory(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Story)) *model.Story {
	t.Helper()

	story := &model.Story{
		UserID: userID,
		Title:  fmt.Sprintf("Test Story %d", time.Now().UnixNano()%10000),
		Theme:  "a trip to the moon",
		Chapters: model.ChapterList{
			{Title: "Chapter 1", Text: "Once upon a time.", VisualPrompt: "a rocket on a launchpad"},
			{Title: "Chapter 2", Text: "They flew away.", VisualPrompt: "a rocket in space"},
			{Title: "Chapter 3", Text: "They landed.", VisualPrompt: "a rocket on the moon"},
			{Title: "Chapter 4", Text: "They came home.", VisualPrompt: "a rocket returning to earth"},
		},
	}

	for _, opt := range opts {
		opt(story)
	}

	if err := db.Create(story).Error; err != nil {
		t.Fatalf("Failed to create test story: %v", err)
	}

	return story
}

// WithCharacters 设置故事角色
func WithCharacters(ids ...int64) func(*model.Story) {
	return func(s *model.Story) {
		s.CharacterIDs = ids
	}
}

// WithPremium 设置为付费额度创建
func WithPremium() func(*model.Story) {
	return func(s *model.Story) {
		s.IsPremium = true
	}
}

// WithChapters 覆盖章节内容
func WithChapters(chapters model.ChapterList) func(*model.Story) {
	return func(s *model.Story) {
		s.Chapters = chapters
	}
}

// TestRenderJob 创建测试渲染任务
func TestRenderJob(t *testing.T, db *gorm.DB, userID, storyID int64, status string) *model.RenderJob {
	t.Helper()

	job := &model.RenderJob{
		StoryID: storyID,
		UserID:  userID,
		Status:  status,
	}

	if err := db.Create(job).Error; err != nil {
		t.Fatalf("Failed to create test render job: %v", err)
	}

	return job
}

// TestPurchase 创建测试购买记录
func TestPurchase(t *testing.T, db *gorm.DB, userID int64, packID, plan string, credits int) *model.Purchase {
	t.Helper()

	purchase := &model.Purchase{
		UserID:  userID,
		PackID:  packID,
		Plan:    plan,
		Credits: credits,
	}

	if err := db.Create(purchase).Error; err != nil {
		t.Fatalf("Failed to create test purchase: %v", err)
	}

	return purchase
}
