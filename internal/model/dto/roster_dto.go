package dto

type AssignSlotRequest struct {
	Slot     string `json:"slot" binding:"required"`
	AvatarID int64  `json:"avatar_id" binding:"required"`
}

type RosterSlotView struct {
	Slot     string `json:"slot"`
	AvatarID int64  `json:"avatar_id"`
	Role     string `json:"role"`
}

type RosterView struct {
	Members []RosterSlotView `json:"members"`
}
