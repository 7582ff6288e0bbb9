package notify_sdk

import (
	"net/http"

	"github.com/cydxin/notify-sdk/response"
	"github.com/gin-gonic/gin"
)

type UpdatePreferencesReq struct {
	EmailNotificationsEnabled bool `json:"email_notifications_enabled"`
	DirectoryOptIn            bool `json:"directory_opt_in"`
}

// GinHandleUpdatePreferences 住户修改自己的通知偏好
// @Summary 修改通知偏好
// @Description directory_opt_in=false 的住户不会被"全体住户"圈到；关闭邮件通知后只收站内信。
// @Tags 住户
// @Accept json
// @Produce json
// @Param req body UpdatePreferencesReq true "偏好"
// @Success 200 {object} response.Response{data=models.Recipient}
// @Security BearerAuth
// @Router /recipient/preferences [post]
func (c *NotifyEngine) GinHandleUpdatePreferences(ctx *gin.Context) {
	uid, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req UpdatePreferencesReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, response.Error(response.CodeParamError, err.Error()))
		return
	}

	r, err := c.RecipientService.UpdatePreferences(ctx.Request.Context(), uid, req.EmailNotificationsEnabled, req.DirectoryOptIn)
	if err != nil {
		c.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response.Success(r))
}
