package service

import (
	"errors"
	"sort"
	"time"

	"github.com/qs3c/fable_go_server/config"
	"github.com/qs3c/fable_go_server/internal/model"
	"github.com/qs3c/fable_go_server/internal/model/dto"
	"github.com/qs3c/fable_go_server/internal/repository"
)

var (
	ErrCreditExhausted = errors.New("本月故事额度已用完")
	ErrUnknownPack     = errors.New("充值包不存在")
)

// 额度类型，决定消耗哪个计数器以及故事是否按高级档生成
const (
	CreditTypeFree   = "free"
	CreditTypeTrial  = "trial"
	CreditTypePaid   = "paid"
	CreditTypeSchool = "school"
)

// CreditDecision 一次创建请求的额度判定结果
type CreditDecision struct {
	Allowed    bool
	CreditType string
	Premium    bool // 按高级档生成（体验、付费、学校都算）
	Reason     string
}

type CreditService struct {
	userRepo     *repository.UserRepository
	purchaseRepo *repository.PurchaseRepository
	cfg          *config.Config
}

func NewCreditService(userRepo *repository.UserRepository, purchaseRepo *repository.PurchaseRepository, cfg *config.Config) *CreditService {
	return &CreditService{
		userRepo:     userRepo,
		purchaseRepo: purchaseRepo,
		cfg:          cfg,
	}
}

// Evaluate 判定用户当前能否创建故事。
// 学校账号走故事包，付费用户走钱包余额，
// 免费用户先用高级体验次数再用免费次数
func (s *CreditService) Evaluate(user *model.User) *CreditDecision {
	if user.IsSchoolUser {
		if user.SchoolStoriesUsed < s.cfg.School.StoryPackageSize {
			return &CreditDecision{Allowed: true, CreditType: CreditTypeSchool, Premium: true}
		}
		return &CreditDecision{Reason: "学校故事包已用完"}
	}

	if user.Plan == model.PlanPremium || user.Plan == model.PlanEnterprise {
		if user.Credits > 0 {
			return &CreditDecision{Allowed: true, CreditType: CreditTypePaid, Premium: true}
		}
		return &CreditDecision{Reason: "余额不足，请购买充值包"}
	}

	if user.MonthlyPremiumTrialUsed < s.cfg.Credits.MonthlyTrialLimit {
		return &CreditDecision{Allowed: true, CreditType: CreditTypeTrial, Premium: true}
	}
	if user.MonthlyFreeUsed < s.cfg.Credits.MonthlyFreeLimit {
		return &CreditDecision{Allowed: true, CreditType: CreditTypeFree}
	}
	return &CreditDecision{Reason: "本月免费额度已用完"}
}

// CanCreateStory 取用户并判定额度
func (s *CreditService) CanCreateStory(userID int64) (*CreditDecision, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	return s.Evaluate(user), nil
}

// Consume 生成成功后按判定的额度类型扣账。
// 生成失败不调用，不会白扣用户额度
func (s *CreditService) Consume(userID int64, creditType string) error {
	switch creditType {
	case CreditTypeSchool:
		return s.userRepo.IncrementSchoolStories(userID)
	case CreditTypePaid:
		return s.userRepo.DecrementCredits(userID)
	case CreditTypeTrial:
		return s.userRepo.IncrementMonthlyTrial(userID)
	case CreditTypeFree:
		return s.userRepo.IncrementMonthlyFree(userID)
	default:
		return errors.New("unknown credit type: " + creditType)
	}
}

// BuyPack 购买充值包：升级套餐、增加余额、记一条购买流水。
// 同一个包重复购买余额累加
func (s *CreditService) BuyPack(userID int64, packID string) (*dto.UserInfo, error) {
	pack, ok := s.cfg.Credits.Packs[packID]
	if !ok {
		return nil, ErrUnknownPack
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.AddCredits(userID, pack.Credits); err != nil {
		return nil, err
	}
	if !user.IsSchoolUser && user.Plan != pack.Plan {
		if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"plan": pack.Plan}); err != nil {
			return nil, err
		}
	}

	purchase := &model.Purchase{
		UserID:  userID,
		PackID:  packID,
		Plan:    pack.Plan,
		Credits: pack.Credits,
		Amount:  pack.Price,
	}
	if err := s.purchaseRepo.Create(purchase); err != nil {
		return nil, err
	}

	updated, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	return BuildUserInfo(updated), nil
}

// ListPacks 可购买的充值包，按价格排序
func (s *CreditService) ListPacks() []dto.PackView {
	packs := make([]dto.PackView, 0, len(s.cfg.Credits.Packs))
	for id, p := range s.cfg.Credits.Packs {
		packs = append(packs, dto.PackView{
			PackID:      id,
			DisplayName: p.DisplayName,
			Plan:        p.Plan,
			Credits:     p.Credits,
			Price:       p.Price,
		})
	}
	sort.Slice(packs, func(i, j int) bool { return packs[i].Price < packs[j].Price })
	return packs
}

// GetCreditInfo 当前额度状态
func (s *CreditService) GetCreditInfo(userID int64) (*dto.CreditInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	decision := s.Evaluate(user)
	info := &dto.CreditInfo{
		Plan:             user.Plan,
		Credits:          user.Credits,
		MonthlyFreeUsed:  user.MonthlyFreeUsed,
		MonthlyFreeLimit: s.cfg.Credits.MonthlyFreeLimit,
		TrialUsed:        user.MonthlyPremiumTrialUsed,
		TrialLimit:       s.cfg.Credits.MonthlyTrialLimit,
		CanCreate:        decision.Allowed,
		CreditType:       decision.CreditType,
		Reason:           decision.Reason,
	}
	if user.IsSchoolUser {
		info.SchoolStoriesUsed = user.SchoolStoriesUsed
		info.SchoolPackageSize = s.cfg.School.StoryPackageSize
	}
	return info, nil
}

// ResetAllMonthly 月初批量清零计数器，维护任务调用
func (s *CreditService) ResetAllMonthly() error {
	return s.userRepo.ResetAllMonthlyCounters(time.Now())
}
