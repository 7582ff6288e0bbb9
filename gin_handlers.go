package notify_sdk

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cydxin/notify-sdk/middleware"
	"github.com/cydxin/notify-sdk/response"
	"github.com/cydxin/notify-sdk/service"
	"github.com/gin-gonic/gin"
)

/* Handlers are split into:
- handler_compose.go   管理员撰写/预览/审计
- handler_inbox.go     住户站内信
- handler_broadcast.go 业主公告
- handler_recipient.go 住户偏好
*/

// RegisterRoutes 在 group（一般是 /api/v1）下注册全部接口：
// 住户接口只需要登录，/admin 下的接口还要求管理员。
func (c *NotifyEngine) RegisterRoutes(group *gin.RouterGroup) {
	group.Use(middleware.RequestTimeout(c.config.Service.RequestTimeout))
	authed := group.Group("", c.GinAuthMiddleware(nil))

	adminAPI := authed.Group("/admin/message", c.RequireAdmin())
	{
		adminAPI.POST("/send", c.GinHandleSendMessage)
		adminAPI.POST("/preview", c.GinHandlePreviewRecipients)
		adminAPI.GET("/list", c.GinHandleListSentMessages)
	}

	inboxAPI := authed.Group("/inbox")
	{
		inboxAPI.GET("/list", c.GinHandleListInbox)
		inboxAPI.GET("/archived", c.GinHandleListArchived)
		inboxAPI.GET("/detail", c.GinHandleOpenInboxEntry)
		inboxAPI.POST("/read", c.GinHandleMarkInboxRead)
		inboxAPI.POST("/read_all", c.GinHandleMarkAllInboxRead)
		inboxAPI.POST("/archive", c.GinHandleArchiveInboxEntry)
		inboxAPI.GET("/unread_count", c.GinHandleInboxUnreadCount)
	}

	noticeAPI := authed.Group("/notice")
	{
		noticeAPI.GET("/list", c.GinHandleListBroadcasts)
		noticeAPI.GET("/unread_count", c.GinHandleBroadcastUnreadCount)
	}

	recipientAPI := authed.Group("/recipient")
	{
		recipientAPI.POST("/preferences", c.GinHandleUpdatePreferences)
	}
}

// currentUserID 取鉴权中间件写入的 user_id
func currentUserID(ctx *gin.Context) (uint64, bool) {
	uid := ctx.GetUint64(middleware.ContextUserIDKey)
	if uid == 0 {
		ctx.JSON(http.StatusUnauthorized, response.Error(response.CodeTokenInvalid, "user_id not found"))
		return 0, false
	}
	return uid, true
}

func queryUint64(ctx *gin.Context, key string) (uint64, bool) {
	v, err := strconv.ParseUint(ctx.Query(key), 10, 64)
	if err != nil || v == 0 {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, "invalid "+key))
		return 0, false
	}
	return v, true
}

// writeError service 错误 -> HTTP 状态 + 业务码
func (c *NotifyEngine) writeError(ctx *gin.Context, err error) {
	switch {
	case service.IsValidation(err):
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
	case service.IsAuthorization(err):
		ctx.JSON(http.StatusForbidden, response.Error(response.CodePermissionDeny, err.Error()))
	case service.IsResolution(err):
		ctx.JSON(http.StatusOK, response.Error(response.CodeNoRecipients, err.Error()))
	case errors.Is(err, service.ErrEntryNotFound), errors.Is(err, service.ErrRecipientNotFound):
		ctx.JSON(http.StatusOK, response.Error(response.CodeNotFound, err.Error()))
	default:
		c.logger.Error("request failed", "path", ctx.FullPath(), "error", err)
		ctx.JSON(http.StatusOK, response.Error(response.CodeInternalError, err.Error()))
	}
}
