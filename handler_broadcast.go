package notify_sdk

import (
	"net/http"

	"github.com/cydxin/notify-sdk/response"
	"github.com/gin-gonic/gin"
)

// GinHandleListBroadcasts 业主公告列表
// @Summary 业主公告
// @Description 紧急公告置顶（可配置），返回打开前的已读状态，返回后全部记为已读。
// @Tags 公告
// @Produce json
// @Success 200 {object} response.Response{data=[]models.BroadcastEntry}
// @Security BearerAuth
// @Router /notice/list [get]
func (c *NotifyEngine) GinHandleListBroadcasts(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	items, err := c.BroadcastService.ListBroadcasts(ctx.Request.Context(), uid)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(items))
}

// GinHandleBroadcastUnreadCount 未读公告数
// @Summary 未读公告数
// @Tags 公告
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}} "data.unread"
// @Security BearerAuth
// @Router /notice/unread_count [get]
func (c *NotifyEngine) GinHandleBroadcastUnreadCount(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	n, err := c.BroadcastService.UnreadCount(ctx.Request.Context(), uid)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(map[string]any{"unread": n}))
}
