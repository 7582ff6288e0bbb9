// Package notify_sdk 小区门户的消息与通知投递核心：管理员撰写、圈人、站内信/公告/邮件投递、住户收件箱
// @title Notify SDK API
// @version 1.0
// @description 小区门户消息与通知投递的 RESTful API 文档，包含管理员撰写、站内信、业主公告、住户偏好等模块
// @description
// @description ## 业务状态码说明
// @description | Code | 说明 |
// @description |------|------|
// @description | 0 | 成功 |
// @description | 10001 | 参数错误 |
// @description | 10002 | 记录不存在 |
// @description | 10004 | Token 无效 |
// @description | 10005 | 权限不足 |
// @description | 20001 | 没有圈到收件人 |
// @description | 20002 | 部分通道投递失败 |
// @description | 99999 | 内部错误 |
// @description
// @description ## HTTP 状态码说明
// @description - **200**: 业务请求成功（根据 response.code 判断业务状态）
// @description - **400**: 参数错误
// @description - **401**: 认证失败（未登录/Token 无效）
// @description - **403**: 权限不足
// @description - **500**: 服务器内部错误
// @description
// @description ## 响应格式
// @description 所有接口统一返回格式：
// @description ```json
// @description {
// @description   "code": 0,
// @description   "msg": "success",
// @description   "data": {}
// @description }
// @description ```
//
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
//
// @host localhost:6789
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description 格式：Bearer <token>
package notify_sdk
