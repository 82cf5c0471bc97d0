package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/fable_go_server/internal/api/middleware"
	"github.com/qs3c/fable_go_server/internal/model/dto"
	"github.com/qs3c/fable_go_server/internal/pkg/response"
	"github.com/qs3c/fable_go_server/internal/service"
)

type RosterHandler struct {
	rosterService *service.RosterService
}

func NewRosterHandler(rosterService *service.RosterService) *RosterHandler {
	return &RosterHandler{
		rosterService: rosterService,
	}
}

// Get 获取班级名册
// GET /api/v1/school/roster
func (h *RosterHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	view, err := h.rosterService.Get(userID)
	if err != nil {
		switch err {
		case service.ErrNotSchoolUser:
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, view)
}

// Assign 把形象绑定到名册槽位，已占用的槽位直接覆盖
// PUT /api/v1/school/roster
func (h *RosterHandler) Assign(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.AssignSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	view, err := h.rosterService.Assign(userID, &req)
	if err != nil {
		switch err {
		case service.ErrNotSchoolUser:
			response.PermissionError(c, err.Error())
		case service.ErrInvalidSlot:
			response.ParamError(c, err.Error())
		case service.ErrAvatarNotFound:
			response.NotFoundError(c, err.Error())
		case service.ErrAvatarPermission:
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "槽位已更新", view)
}
