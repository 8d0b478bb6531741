package http

import (
	"net/http"
	"strconv"
	"time"

	"time-capsule/internal/domain"
	"time-capsule/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CapsuleHandler 封装了与胶囊相关的 HTTP 处理逻辑
type CapsuleHandler struct {
	capsuleService *service.CapsuleService
}

// NewCapsuleHandler 创建 CapsuleHandler 实例
func NewCapsuleHandler(capsuleService *service.CapsuleService) *CapsuleHandler {
	return &CapsuleHandler{capsuleService: capsuleService}
}

// CreateCapsuleRequest 定义创建胶囊请求的结构体
// unlock_at 使用 RFC3339 格式（JSON 标准 time.Time 解析），必须带时区偏移
type CreateCapsuleRequest struct {
	Message  string    `json:"message" binding:"required"`
	UnlockAt time.Time `json:"unlock_at" binding:"required"`
}

// CreateCapsuleResponse 只暴露 ID、解锁码和解锁时间，不回显内容
type CreateCapsuleResponse struct {
	ID         uint      `json:"id"`
	UnlockCode string    `json:"unlock_code"`
	UnlockAt   time.Time `json:"unlock_at"`
}

// CapsuleResponse 定义读取胶囊的响应结构体
// locked 状态下 message 为空并从 JSON 中省略
type CapsuleResponse struct {
	ID        uint                 `json:"id"`
	Message   string               `json:"message,omitempty"`
	UnlockAt  time.Time            `json:"unlock_at"`
	Status    domain.CapsuleStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

func toCapsuleResponse(capsule *domain.Capsule) CapsuleResponse {
	return CapsuleResponse{
		ID:        capsule.ID,
		Message:   capsule.Message,
		UnlockAt:  capsule.UnlockAt,
		Status:    capsule.Status,
		CreatedAt: capsule.CreatedAt,
	}
}

// Create 处理创建胶囊的请求
func (h *CapsuleHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	var req CreateCapsuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logCtx.WithError(err).Warn("Handler.CreateCapsule: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	capsule, err := h.capsuleService.Create(c.Request.Context(), userID, req.Message, req.UnlockAt)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logCtx.WithField("capsule_id", capsule.ID).Info("Handler.CreateCapsule: Capsule created")
	c.JSON(http.StatusCreated, CreateCapsuleResponse{
		ID:         capsule.ID,
		UnlockCode: capsule.UnlockCode,
		UnlockAt:   capsule.UnlockAt,
	})
}

// List 列出当前用户的全部胶囊
func (h *CapsuleHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	capsules, err := h.capsuleService.List(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	resp := make([]CapsuleResponse, 0, len(capsules))
	for i := range capsules {
		resp = append(resp, toCapsuleResponse(&capsules[i]))
	}
	SuccessResponse(c, http.StatusOK, gin.H{"capsules": resp})
}

// Get 获取当前用户的某个胶囊（locked 时只有元数据）
func (h *CapsuleHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	capsuleID, ok := capsuleIDParam(c)
	if !ok {
		return
	}

	capsule, err := h.capsuleService.Get(c.Request.Context(), userID, capsuleID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, toCapsuleResponse(capsule))
}

// UpdateCapsuleRequest 定义修改胶囊请求的结构体，两个字段都可选
type UpdateCapsuleRequest struct {
	Message  string    `json:"message"`
	UnlockAt time.Time `json:"unlock_at"`
}

// Update 处理修改胶囊的请求（仅解锁前允许）
func (h *CapsuleHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	capsuleID, ok := capsuleIDParam(c)
	if !ok {
		return
	}

	var req UpdateCapsuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.UpdateCapsule: Invalid input format")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}
	if req.Message == "" && req.UnlockAt.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update: provide message and/or unlock_at"})
		return
	}

	capsule, err := h.capsuleService.Update(c.Request.Context(), userID, capsuleID, req.Message, req.UnlockAt)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "capsule_id": capsule.ID}).Info("Handler.UpdateCapsule: Capsule updated")
	SuccessResponse(c, http.StatusOK, toCapsuleResponse(capsule))
}

// Delete 处理删除胶囊的请求（仅解锁前允许）
func (h *CapsuleHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	capsuleID, ok := capsuleIDParam(c)
	if !ok {
		return
	}

	if err := h.capsuleService.Delete(c.Request.Context(), userID, capsuleID); err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"user_id": userID, "capsule_id": capsuleID}).Info("Handler.DeleteCapsule: Capsule deleted")
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Capsule deleted successfully"})
}

// AccessByUnlockCode 处理通过解锁码访问胶囊的请求，无需认证
func (h *CapsuleHandler) AccessByUnlockCode(c *gin.Context) {
	code := c.Param("code")
	if len(code) != domain.UnlockCodeLength {
		// 长度不对的 code 不可能存在，直接按未找到处理
		ErrorResponse(c, http.StatusNotFound, service.ErrCapsuleNotFound.Error())
		return
	}

	capsule, err := h.capsuleService.AccessByUnlockCode(c.Request.Context(), code)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, toCapsuleResponse(capsule))
}

// --- 私有辅助函数 ---

// currentUserID 从 Gin 上下文中获取认证中间件设置的用户 ID。
// 失败时已写入响应，调用者直接 return 即可。
func currentUserID(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		logrus.Warn("Handler: User ID not found in context, middleware missing or failed?")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("Handler: User ID in context is not uint")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error processing user ID"})
		return 0, false
	}
	return userID, true
}

// capsuleIDParam 解析路径参数中的胶囊 ID
func capsuleIDParam(c *gin.Context) (uint, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid capsule id"})
		return 0, false
	}
	return uint(id), true
}
