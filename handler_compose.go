package notify_sdk

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cydxin/notify-sdk/message"
	"github.com/cydxin/notify-sdk/response"
	"github.com/cydxin/notify-sdk/service"
	"github.com/gin-gonic/gin"
)

// -------------------- 管理员撰写（Compose）相关接口 --------------------

// GinHandleSendMessage 撰写并发送
// @Summary 撰写并发送消息
// @Description 按收件人模式圈人，写审计行后并行投递站内和邮件。部分通道失败时 code=20002，data 仍是完整结果。
// @Tags 管理员消息
// @Accept json
// @Produce json
// @Param req body message.ComposeReq true "撰写内容"
// @Success 200 {object} response.Response{data=service.DispatchResult}
// @Failure 400 {object} response.Response "参数错误"
// @Failure 403 {object} response.Response "非管理员"
// @Security BearerAuth
// @Router /admin/message/send [post]
func (c *NotifyEngine) GinHandleSendMessage(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req message.ComposeReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}

	res, err := c.MsgService.ComposeAndSend(ctx.Request.Context(), uid, req)
	if err != nil {
		var de *service.DispatchError
		if errors.As(err, &de) && res != nil {
			ctx.JSON(http.StatusOK, response.ErrorWithData(response.CodeDispatchPartial, err.Error(), res))
			return
		}
		c.writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, response.Success(res))
}

// GinHandlePreviewRecipients 收件人预览
// @Summary 收件人预览
// @Description 返回当前选择会圈到多少人、其中多少人能收邮件。圈不到人时返回 0 而不是错误。
// @Tags 管理员消息
// @Accept json
// @Produce json
// @Param req body message.PreviewReq true "收件人选择"
// @Success 200 {object} response.Response{data=service.RecipientPreview}
// @Security BearerAuth
// @Router /admin/message/preview [post]
func (c *NotifyEngine) GinHandlePreviewRecipients(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req message.PreviewReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}

	p, err := c.MsgService.Preview(ctx.Request.Context(), uid, req)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(p))
}

// GinHandleListSentMessages 已发送消息（审计）
// @Summary 已发送消息
// @Tags 管理员消息
// @Produce json
// @Param limit query int false "条数(默认20,最大200)"
// @Param offset query int false "偏移量"
// @Success 200 {object} response.Response{data=[]models.Message}
// @Security BearerAuth
// @Router /admin/message/list [get]
func (c *NotifyEngine) GinHandleListSentMessages(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	list, err := c.MsgService.ListSent(ctx.Request.Context(), uid, limit, offset)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(list))
}
