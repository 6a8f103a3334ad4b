package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes は /v1/api グループにエンドポイントを登録する
func RegisterRoutes(api *gin.RouterGroup, h *PreviewHandler, system SystemInfo) {
	api.GET("/health", HealthCheck)
	api.GET("/system", GetSystemInfo(system))

	api.GET("/thumbnail", h.GetThumbnail)
	api.GET("/image", h.GetImage)
	api.GET("/info", h.GetInfo)
}
