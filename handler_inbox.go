package notify_sdk

import (
	"net/http"

	"github.com/cydxin/notify-sdk/response"
	"github.com/gin-gonic/gin"
)

// -------------------- 站内信（Inbox）相关接口 --------------------

// GinHandleListInbox 拉取站内信
// @Summary 拉取站内信
// @Description 未读在前，其次优先级高的在前，再按时间倒序。不含已归档。
// @Tags 站内信
// @Produce json
// @Param filter query string false "all(默认)/unread/read"
// @Success 200 {object} response.Response{data=[]models.InboxEntry}
// @Security BearerAuth
// @Router /inbox/list [get]
func (c *NotifyEngine) GinHandleListInbox(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	items, err := c.InboxService.List(ctx.Request.Context(), uid, ctx.Query("filter"))
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(items))
}

// GinHandleListArchived 归档箱
// @Summary 归档箱
// @Tags 站内信
// @Produce json
// @Success 200 {object} response.Response{data=[]models.InboxEntry}
// @Security BearerAuth
// @Router /inbox/archived [get]
func (c *NotifyEngine) GinHandleListArchived(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	items, err := c.InboxService.ListArchived(ctx.Request.Context(), uid)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(items))
}

// GinHandleOpenInboxEntry 打开一条站内信（打开即已读）
// @Summary 打开站内信
// @Tags 站内信
// @Produce json
// @Param id query uint64 true "站内信ID"
// @Success 200 {object} response.Response{data=models.InboxEntry}
// @Security BearerAuth
// @Router /inbox/detail [get]
func (c *NotifyEngine) GinHandleOpenInboxEntry(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}
	id, ok := queryUint64(ctx, "id")
	if !ok {
		return
	}

	entry, err := c.InboxService.Open(ctx.Request.Context(), uid, id)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(entry))
}

type InboxEntryReq struct {
	ID uint64 `json:"id" binding:"required"`
}

// GinHandleMarkInboxRead 标记已读（重复调用不报错，read_at 保持第一次）
// @Summary 标记已读
// @Tags 站内信
// @Accept json
// @Produce json
// @Param req body InboxEntryReq true "请求参数"
// @Success 200 {object} response.Response{data=models.InboxEntry}
// @Security BearerAuth
// @Router /inbox/read [post]
func (c *NotifyEngine) GinHandleMarkInboxRead(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req InboxEntryReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}

	entry, err := c.InboxService.MarkRead(ctx.Request.Context(), uid, req.ID)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(entry))
}

// GinHandleMarkAllInboxRead 全部已读
// @Summary 全部已读
// @Tags 站内信
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}} "data.updated"
// @Security BearerAuth
// @Router /inbox/read_all [post]
func (c *NotifyEngine) GinHandleMarkAllInboxRead(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	n, err := c.InboxService.MarkAllRead(ctx.Request.Context(), uid)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(map[string]any{"updated": n}))
}

// GinHandleArchiveInboxEntry 归档（软删除）
// @Summary 归档站内信
// @Tags 站内信
// @Accept json
// @Produce json
// @Param req body InboxEntryReq true "请求参数"
// @Success 200 {object} response.Response{data=models.InboxEntry}
// @Security BearerAuth
// @Router /inbox/archive [post]
func (c *NotifyEngine) GinHandleArchiveInboxEntry(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req InboxEntryReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}

	entry, err := c.InboxService.Archive(ctx.Request.Context(), uid, req.ID)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(entry))
}

// GinHandleInboxUnreadCount 未读数
// @Summary 站内信未读数
// @Tags 站内信
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}} "data.unread"
// @Security BearerAuth
// @Router /inbox/unread_count [get]
func (c *NotifyEngine) GinHandleInboxUnreadCount(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	n, err := c.InboxService.UnreadCount(ctx.Request.Context(), uid)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(map[string]any{"unread": n}))
}
