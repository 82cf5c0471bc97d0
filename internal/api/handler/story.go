package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/fable_go_server/internal/api/middleware"
	"github.com/qs3c/fable_go_server/internal/model/dto"
	"github.com/qs3c/fable_go_server/internal/pkg/ai"
	"github.com/qs3c/fable_go_server/internal/pkg/response"
	"github.com/qs3c/fable_go_server/internal/service"
)

type StoryHandler struct {
	storyService *service.StoryService
}

func NewStoryHandler(storyService *service.StoryService) *StoryHandler {
	return &StoryHandler{
		storyService: storyService,
	}
}

// Create 生成新故事
// POST /api/v1/stories
func (h *StoryHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	detail, err := h.storyService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCreditExhausted):
			response.CreditError(c, err.Error())
		case err == service.ErrInvalidTheme,
			err == service.ErrInvalidGoal,
			err == service.ErrInvalidCharacters:
			response.ParamError(c, err.Error())
		case err == service.ErrSchoolOnly:
			response.PermissionError(c, err.Error())
		case err == service.ErrAvatarNotFound:
			response.NotFoundError(c, err.Error())
		case err == service.ErrAvatarPermission:
			response.PermissionError(c, err.Error())
		case err == ai.ErrNotConfigured:
			response.ConfigError(c, err.Error())
		case ai.IsUpstreamRevoked(err):
			response.UpstreamRevokedError(c, err.Error())
		default:
			response.ServerError(c, "故事生成失败")
		}
		return
	}

	response.SuccessWithMessage(c, "故事生成成功", detail)
}

// List 获取故事列表
// GET /api/v1/stories
func (h *StoryHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	search := c.Query("search")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.storyService.List(userID, page, pageSize, search)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Get 获取故事详情
// GET /api/v1/stories/:id
func (h *StoryHandler) Get(c *gin.Context) {
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

	detail, err := h.storyService.Get(userID, storyID)
	if err != nil {
		h.dispatchStoryError(c, err)
		return
	}

	response.Success(c, detail)
}

// Delete 删除故事
// DELETE /api/v1/stories/:id
func (h *StoryHandler) Delete(c *gin.Context) {
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

	if err := h.storyService.Delete(userID, storyID); err != nil {
		h.dispatchStoryError(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// Illustrate 按需生成单章插画
// POST /api/v1/stories/:id/chapters/:index/illustrate
func (h *StoryHandler) Illustrate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	storyID, index, err := parseChapterPath(c)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.storyService.IllustrateChapter(c.Request.Context(), userID, storyID, index)
	if err != nil {
		h.dispatchGenerationError(c, err)
		return
	}

	response.Success(c, resp)
}

// Narrate 按需合成单章旁白
// POST /api/v1/stories/:id/chapters/:index/narrate
func (h *StoryHandler) Narrate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	storyID, index, err := parseChapterPath(c)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.storyService.NarrateChapter(c.Request.Context(), userID, storyID, index)
	if err != nil {
		h.dispatchGenerationError(c, err)
		return
	}

	response.Success(c, resp)
}

// ExportAudiobook 导出整本故事的 WAV 有声书
// GET /api/v1/stories/:id/audiobook
func (h *StoryHandler) ExportAudiobook(c *gin.Context) {
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

	data, title, err := h.storyService.ExportAudiobook(c.Request.Context(), userID, storyID)
	if err != nil {
		h.dispatchGenerationError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.wav"`, title))
	c.Data(http.StatusOK, "audio/wav", data)
}

// ExportBooklet 导出 PDF 绘本
// GET /api/v1/stories/:id/booklet
func (h *StoryHandler) ExportBooklet(c *gin.Context) {
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

	data, title, err := h.storyService.ExportBooklet(userID, storyID)
	if err != nil {
		h.dispatchStoryError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, title))
	c.Data(http.StatusOK, "application/pdf", data)
}

func parseChapterPath(c *gin.Context) (int64, int, error) {
	storyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, 0, errors.New("无效的故事ID")
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, 0, errors.New("无效的章节序号")
	}
	return storyID, index, nil
}

func (h *StoryHandler) dispatchStoryError(c *gin.Context, err error) {
	switch err {
	case service.ErrStoryNotFound:
		response.NotFoundError(c, err.Error())
	case service.ErrStoryPermission:
		response.PermissionError(c, err.Error())
	case service.ErrChapterIndex:
		response.ParamError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}

// dispatchGenerationError 在故事归属错误之外多一层生成服务错误判断
func (h *StoryHandler) dispatchGenerationError(c *gin.Context, err error) {
	switch {
	case err == ai.ErrNotConfigured:
		response.ConfigError(c, err.Error())
	case ai.IsUpstreamRevoked(err):
		response.UpstreamRevokedError(c, err.Error())
	default:
		h.dispatchStoryError(c, err)
	}
}
