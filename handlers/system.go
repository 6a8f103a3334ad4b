package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"

	"photocull-api/preview"
)

type SystemInfo struct {
	AppVersion           string           `json:"appVersion"`
	GoVersion            string           `json:"goVersion"`
	SupportedFormats     []preview.Format `json:"supportedFormats"`
	MaxDimension         int              `json:"maxDimension"`
	Quality              int              `json:"quality"`
	Channels             int              `json:"channels"`
	PreferEmbedded       bool             `json:"preferEmbedded"`
	ApplyOrientation     bool             `json:"applyOrientation"`
	MaxPixelBytes        int64            `json:"maxPixelBytes"`
	MaxConcurrentDecodes int64            `json:"maxConcurrentDecodes"`
}

// NewSystemInfo は起動時の設定から SystemInfo を作成する
func NewSystemInfo(appVersion string, opts *preview.Options, maxConcurrent int64) SystemInfo {
	return SystemInfo{
		AppVersion:           appVersion,
		GoVersion:            runtime.Version(),
		SupportedFormats:     preview.SupportedFormats(),
		MaxDimension:         opts.MaxDimension,
		Quality:              opts.Quality,
		Channels:             opts.Channels,
		PreferEmbedded:       opts.PreferEmbedded,
		ApplyOrientation:     opts.ApplyOrientation,
		MaxPixelBytes:        opts.MaxPixelBytes,
		MaxConcurrentDecodes: maxConcurrent,
	}
}

// GetSystemInfo handles GET /system
func GetSystemInfo(info SystemInfo) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"system":  info,
		})
	}
}
