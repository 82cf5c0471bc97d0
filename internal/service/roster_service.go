package service

import (
	"errors"
	"sort"

	"github.com/qs3c/fable_go_server/internal/model"
	"github.com/qs3c/fable_go_server/internal/model/dto"
	"github.com/qs3c/fable_go_server/internal/repository"
)

var (
	ErrInvalidSlot   = errors.New("名册槽位不合法")
	ErrNotSchoolUser = errors.New("名册功能仅限学校账号")
)

type RosterService struct {
	rosterRepo    *repository.RosterRepository
	avatarService *AvatarService
	userRepo      *repository.UserRepository
}

func NewRosterService(rosterRepo *repository.RosterRepository, avatarService *AvatarService, userRepo *repository.UserRepository) *RosterService {
	return &RosterService{
		rosterRepo:    rosterRepo,
		avatarService: avatarService,
		userRepo:      userRepo,
	}
}

// Assign 把角色分配到名册槽位，同一槽位重复分配静默覆盖
func (s *RosterService) Assign(userID int64, req *dto.AssignSlotRequest) (*dto.RosterView, error) {
	if err := s.requireSchoolUser(userID); err != nil {
		return nil, err
	}
	if !model.ValidSlot(req.Slot) {
		return nil, ErrInvalidSlot
	}
	if _, err := s.avatarService.GetOwned(userID, req.AvatarID); err != nil {
		return nil, err
	}

	roster, err := s.rosterRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	roster.Members[req.Slot] = model.RosterMember{
		Slot:     req.Slot,
		AvatarID: req.AvatarID,
		Role:     model.SlotRole(req.Slot),
	}
	if err := s.rosterRepo.Save(roster); err != nil {
		return nil, err
	}

	return buildRosterView(roster), nil
}

// Get 学校账号的整份名册
func (s *RosterService) Get(userID int64) (*dto.RosterView, error) {
	if err := s.requireSchoolUser(userID); err != nil {
		return nil, err
	}

	roster, err := s.rosterRepo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	return buildRosterView(roster), nil
}

func (s *RosterService) requireSchoolUser(userID int64) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if !user.IsSchoolUser {
		return ErrNotSchoolUser
	}
	return nil
}

func buildRosterView(roster *model.SchoolRoster) *dto.RosterView {
	view := &dto.RosterView{Members: make([]dto.RosterSlotView, 0, len(roster.Members))}
	for _, m := range roster.Members {
		view.Members = append(view.Members, dto.RosterSlotView{
			Slot:     m.Slot,
			AvatarID: m.AvatarID,
			Role:     m.Role,
		})
	}
	sort.Slice(view.Members, func(i, j int) bool { return view.Members[i].Slot < view.Members[j].Slot })
	return view
}
