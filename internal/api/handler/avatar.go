package handler

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/fable_go_server/internal/api/middleware"
	"github.com/qs3c/fable_go_server/internal/model/dto"
	"github.com/qs3c/fable_go_server/internal/pkg/ai"
	"github.com/qs3c/fable_go_server/internal/pkg/response"
	"github.com/qs3c/fable_go_server/internal/service"
)

// maxPhotoSize 头像照片上限，超过直接拒绝不进入视觉分析
const maxPhotoSize = 5 << 20

var photoFormats = map[string]string{
	".png":  "png",
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".webp": "webp",
}

type AvatarHandler struct {
	avatarService *service.AvatarService
}

func NewAvatarHandler(avatarService *service.AvatarService) *AvatarHandler {
	return &AvatarHandler{
		avatarService: avatarService,
	}
}

// Create 上传照片创建卡通形象
// POST /api/v1/avatars  (multipart: name + photo)
func (h *AvatarHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CreateAvatarRequest
	if err := c.ShouldBind(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		response.ParamError(c, "请上传照片")
		return
	}
	defer file.Close()

	if header.Size > maxPhotoSize {
		response.ParamError(c, "照片过大，最大支持 5MB")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	format, ok := photoFormats[ext]
	if !ok {
		response.ParamError(c, "仅支持 PNG/JPG/WebP 格式")
		return
	}

	photo, err := io.ReadAll(io.LimitReader(file, maxPhotoSize+1))
	if err != nil {
		response.ServerError(c, "照片读取失败")
		return
	}

	view, err := h.avatarService.Create(c.Request.Context(), userID, req.Name, photo, format)
	if err != nil {
		switch {
		case err == ai.ErrNotConfigured:
			response.ConfigError(c, err.Error())
		case ai.IsUpstreamRevoked(err):
			response.UpstreamRevokedError(c, err.Error())
		default:
			response.ServerError(c, "形象生成失败")
		}
		return
	}

	response.SuccessWithMessage(c, "形象创建成功", view)
}

// List 获取当前用户的全部形象
// GET /api/v1/avatars
func (h *AvatarHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	views, err := h.avatarService.List(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, views)
}

// Delete 删除形象
// DELETE /api/v1/avatars/:id
func (h *AvatarHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	avatarID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的形象ID")
		return
	}

	if err := h.avatarService.Delete(userID, avatarID); err != nil {
		switch err {
		case service.ErrAvatarNotFound:
			response.NotFoundError(c, err.Error())
		case service.ErrAvatarPermission:
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}
