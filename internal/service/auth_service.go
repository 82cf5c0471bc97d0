package service

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/fable_go_server/config"
	"github.com/qs3c/fable_go_server/internal/model"
	"github.com/qs3c/fable_go_server/internal/model/dto"
	"github.com/qs3c/fable_go_server/internal/pkg/jwt"
	"github.com/qs3c/fable_go_server/internal/repository"
)

var (
	ErrContactExists      = errors.New("联系方式已被注册")
	ErrInvalidCredentials = errors.New("账号或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrAccessCodeExists   = errors.New("访问码已被使用")
)

type AuthService struct {
	userRepo *repository.UserRepository
	cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// Register 个人用户注册
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.LoginResponse, error) {
	exists, err := s.userRepo.ExistsByContact(req.Contact)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrContactExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	passwordStr := string(hashedPassword)
	user := &model.User{
		Name:          req.Name,
		Contact:       &req.Contact,
		PasswordHash:  &passwordStr,
		Plan:          model.PlanFree,
		LastResetDate: time.Now(),
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// Login 个人用户登录。跨月后的首次登录顺带清零月度计数器
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByContact(req.Contact)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err = s.ensureMonthlyReset(user)
	if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// RegisterSchool 学校账号注册。访问码既是账号标识也是口令，
// 用派生的联系方式保证唯一
func (s *AuthService) RegisterSchool(req *dto.RegisterSchoolRequest) (*dto.LoginResponse, error) {
	contact := schoolContact(req.AccessCode)

	exists, err := s.userRepo.ExistsByContact(contact)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAccessCodeExists
	}

	hashedCode, err := bcrypt.GenerateFromPassword([]byte(req.AccessCode), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	codeStr := string(hashedCode)
	user := &model.User{
		Name:          req.TeacherName,
		Contact:       &contact,
		PasswordHash:  &codeStr,
		Plan:          model.PlanEnterprise,
		IsSchoolUser:  true,
		SchoolName:    req.SchoolName,
		MaxStudents:   s.cfg.School.MaxStudents,
		LastResetDate: time.Now(),
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// SchoolLogin 学校账号凭访问码登录
func (s *AuthService) SchoolLogin(req *dto.SchoolLoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByContact(schoolContact(req.AccessCode))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.AccessCode)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err = s.ensureMonthlyReset(user)
	if err != nil {
		return nil, err
	}

	return s.issueToken(user)
}

// GetUserByID 根据 ID 获取用户
func (s *AuthService) GetUserByID(id int64) (*model.User, error) {
	return s.userRepo.GetByID(id)
}

// ensureMonthlyReset 月份或年份变了就清零计数器并回读
func (s *AuthService) ensureMonthlyReset(user *model.User) (*model.User, error) {
	now := time.Now()
	last := user.LastResetDate
	if last.Month() == now.Month() && last.Year() == now.Year() {
		return user, nil
	}

	if err := s.userRepo.ResetMonthlyCounters(user.ID, now); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(user.ID)
}

func (s *AuthService) issueToken(user *model.User) (*dto.LoginResponse, error) {
	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  BuildUserInfo(user),
	}, nil
}

// BuildUserInfo 用户公开视图
func BuildUserInfo(user *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:                      user.ID,
		Name:                    user.Name,
		Plan:                    user.Plan,
		Credits:                 user.Credits,
		MonthlyFreeUsed:         user.MonthlyFreeUsed,
		MonthlyPremiumTrialUsed: user.MonthlyPremiumTrialUsed,
		LastResetDate:           user.LastResetDate,
		IsSchoolUser:            user.IsSchoolUser,
		SchoolName:              user.SchoolName,
		SchoolStoriesUsed:       user.SchoolStoriesUsed,
		MaxStudents:             user.MaxStudents,
	}
}

func schoolContact(accessCode string) string {
	return fmt.Sprintf("school_%s", accessCode)
}
