package notify_sdk

import (
	"github.com/cydxin/notify-sdk/docs"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SwaggerOptions swagger UI 配置
type SwaggerOptions struct {
	// Path 默认 /swagger/*any
	Path string
	// Host 覆盖文档里的 host（部署在反向代理后面时用）
	Host string
	// BasePath 覆盖文档里的 basePath，默认 /api/v1
	BasePath string
}

// RegisterSwagger 在 Gin 路由（或路由组）上注册 Swagger UI。
//
// 使用示例：
//
//	r := gin.Default()
//	notify_sdk.RegisterSwagger(r, nil)
//
// 访问：http://localhost:6789/swagger/index.html
func RegisterSwagger(r gin.IRoutes, opt *SwaggerOptions) {
	var o SwaggerOptions
	if opt != nil {
		o = *opt
	}
	if o.Path == "" {
		o.Path = "/swagger/*any"
	}
	if o.Host != "" {
		docs.SwaggerInfo.Host = o.Host
	}
	if o.BasePath != "" {
		docs.SwaggerInfo.BasePath = o.BasePath
	}
	r.GET(o.Path, ginSwagger.WrapHandler(swaggerFiles.Handler))
}
