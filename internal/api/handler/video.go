package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/fable_go_server/internal/api/middleware"
	"github.com/qs3c/fable_go_server/internal/pkg/response"
	"github.com/qs3c/fable_go_server/internal/service"
)

type VideoHandler struct {
	renderService *service.RenderService
}

func NewVideoHandler(renderService *service.RenderService) *VideoHandler {
	return &VideoHandler{
		renderService: renderService,
	}
}

// Start 发起故事视频渲染，任务进后台队列
// POST /api/v1/stories/:id/video
func (h *VideoHandler) Start(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	storyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的故事ID")
		return
	}

	view, err := h.renderService.Start(c.Request.Context(), userID, storyID)
	if err != nil {
		switch err {
		case service.ErrStoryNotFound:
			response.NotFoundError(c, err.Error())
		case service.ErrStoryPermission:
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "渲染任务提交失败")
		}
		return
	}

	response.SuccessWithMessage(c, "渲染任务已提交", view)
}

// Status 查询最近一次渲染任务状态
// GET /api/v1/stories/:id/video
func (h *VideoHandler) Status(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	storyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的故事ID")
		return
	}

	view, err := h.renderService.Status(userID, storyID)
	if err != nil {
		switch err {
		case service.ErrNoRenderJob:
			response.NotFoundError(c, err.Error())
		case service.ErrStoryNotFound:
			response.NotFoundError(c, err.Error())
		case service.ErrStoryPermission:
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, view)
}
