package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/fable_go_server/internal/api/middleware"
	"github.com/qs3c/fable_go_server/internal/model/dto"
	"github.com/qs3c/fable_go_server/internal/pkg/response"
	"github.com/qs3c/fable_go_server/internal/service"
)

type UserHandler struct {
	authService   *service.AuthService
	creditService *service.CreditService
}

func NewUserHandler(authService *service.AuthService, creditService *service.CreditService) *UserHandler {
	return &UserHandler{
		authService:   authService,
		creditService: creditService,
	}
}

// Profile 获取当前用户信息
// GET /api/v1/user/profile
func (h *UserHandler) Profile(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		switch err {
		case service.ErrUserNotFound:
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, service.BuildUserInfo(user))
}

// Credits 获取当前额度状态
// GET /api/v1/user/credits
func (h *UserHandler) Credits(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	info, err := h.creditService.GetCreditInfo(userID)
	if err != nil {
		switch err {
		case service.ErrUserNotFound:
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, info)
}

// ListPacks 获取可购买的充值包
// GET /api/v1/packs
func (h *UserHandler) ListPacks(c *gin.Context) {
	response.Success(c, h.creditService.ListPacks())
}

// BuyPack 购买充值包
// POST /api/v1/packs/buy
func (h *UserHandler) BuyPack(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.BuyPackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	info, err := h.creditService.BuyPack(userID, req.PackID)
	if err != nil {
		switch err {
		case service.ErrUnknownPack:
			response.ParamError(c, err.Error())
		case service.ErrUserNotFound:
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "购买成功", info)
}
