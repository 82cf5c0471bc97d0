package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/fable_go_server/config"
	"github.com/qs3c/fable_go_server/internal/model"
	"github.com/qs3c/fable_go_server/internal/model/dto"
	"github.com/qs3c/fable_go_server/internal/repository"
	"github.com/qs3c/fable_go_server/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", ExpireHours: 24},
		Credits: config.CreditsConfig{
			MonthlyFreeLimit:  3,
			MonthlyTrialLimit: 1,
			Packs: map[string]config.PackConfig{
				"premium_10":    {Plan: model.PlanPremium, Credits: 10, Price: 19.9, DisplayName: "高级包 10 次"},
				"enterprise_50": {Plan: model.PlanEnterprise, Credits: 50, Price: 79.9, DisplayName: "企业包 50 次"},
			},
		},
		School: config.SchoolConfig{StoryPackageSize: 10, MaxStudents: 30},
	}
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := NewAuthService(repository.NewUserRepository(db), testConfig())

	resp, err := svc.Register(&dto.RegisterRequest{
		Name:     "João",
		Contact:  "joao@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, model.PlanFree, resp.User.Plan)

	login, err := svc.Login(&dto.LoginRequest{Contact: "joao@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestAuthService_Register_DuplicateContact(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := NewAuthService(repository.NewUserRepository(db), testConfig())
	req := &dto.RegisterRequest{Name: "João", Contact: "joao@example.com", Password: "secret123"}

	_, err := svc.Register(req)
	require.NoError(t, err)

	_, err = svc.Register(req)
	assert.ErrorIs(t, err, ErrContactExists)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := NewAuthService(repository.NewUserRepository(db), testConfig())
	_, err := svc.Register(&dto.RegisterRequest{Name: "João", Contact: "joao@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Login(&dto.LoginRequest{Contact: "joao@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(&dto.LoginRequest{Contact: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_MonthlyResetAcrossMonthBoundary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	userRepo := repository.NewUserRepository(db)
	svc := NewAuthService(userRepo, testConfig())

	resp, err := svc.Register(&dto.RegisterRequest{Name: "João", Contact: "joao@example.com", Password: "secret123"})
	require.NoError(t, err)

	// 把上次清零时间拨回上个月，并写入已用计数
	lastMonth := time.Now().AddDate(0, -1, 0)
	require.NoError(t, userRepo.UpdateFields(resp.User.ID, map[string]interface{}{
		"monthly_free_used":          3,
		"monthly_premium_trial_used": 1,
		"last_reset_date":            lastMonth,
	}))

	login, err := svc.Login(&dto.LoginRequest{Contact: "joao@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Zero(t, login.User.MonthlyFreeUsed)
	assert.Zero(t, login.User.MonthlyPremiumTrialUsed)
}

func TestAuthService_Login_NoResetWithinSameMonth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	userRepo := repository.NewUserRepository(db)
	svc := NewAuthService(userRepo, testConfig())

	resp, err := svc.Register(&dto.RegisterRequest{Name: "João", Contact: "joao@example.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, userRepo.UpdateFields(resp.User.ID, map[string]interface{}{
		"monthly_free_used": 2,
	}))

	login, err := svc.Login(&dto.LoginRequest{Contact: "joao@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, 2, login.User.MonthlyFreeUsed)
}

func TestAuthService_SchoolRegisterAndLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := NewAuthService(repository.NewUserRepository(db), testConfig())

	resp, err := svc.RegisterSchool(&dto.RegisterSchoolRequest{
		SchoolName:  "Escola Azul",
		TeacherName: "Profa. Maria",
		AccessCode:  "AZUL2026",
	})
	require.NoError(t, err)
	assert.True(t, resp.User.IsSchoolUser)
	assert.Equal(t, model.PlanEnterprise, resp.User.Plan)
	assert.Equal(t, 30, resp.User.MaxStudents)

	login, err := svc.SchoolLogin(&dto.SchoolLoginRequest{AccessCode: "AZUL2026"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.SchoolLogin(&dto.SchoolLoginRequest{AccessCode: "WRONG"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_RegisterSchool_DuplicateCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	svc := NewAuthService(repository.NewUserRepository(db), testConfig())
	req := &dto.RegisterSchoolRequest{SchoolName: "Escola Azul", TeacherName: "Maria", AccessCode: "AZUL2026"}

	_, err := svc.RegisterSchool(req)
	require.NoError(t, err)

	_, err = svc.RegisterSchool(req)
	assert.ErrorIs(t, err, ErrAccessCodeExists)
}
