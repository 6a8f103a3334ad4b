package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"photocull-api/metrics"
	"photocull-api/middleware"
	"photocull-api/preview"
	"photocull-api/utils"
)

const (
	HeaderImageWidth           = "X-Image-Width"
	HeaderImageHeight          = "X-Image-Height"
	HeaderImageChannels        = "X-Image-Channels"
	HeaderImageBytesPerChannel = "X-Image-Bytes-Per-Channel"
)

// PreviewHandler はプレビュー機能を処理するハンドラー
type PreviewHandler struct {
	extractor preview.Extractor
	basePath  string
	sem       *semaphore.Weighted
	logger    zerolog.Logger
}

// NewPreviewHandler は新しいプレビューハンドラーを作成
//
// maxConcurrent はデコード処理の同時実行数の上限。
func NewPreviewHandler(extractor preview.Extractor, basePath string, maxConcurrent int64, logger zerolog.Logger) *PreviewHandler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &PreviewHandler{
		extractor: extractor,
		basePath:  basePath,
		sem:       semaphore.NewWeighted(maxConcurrent),
		logger:    logger,
	}
}

// GetThumbnail はサムネイル JPEG を返す
func (h *PreviewHandler) GetThumbnail(c *gin.Context) {
	responseFormat := c.DefaultQuery("response", "binary") // binary or base64
	if responseFormat != "binary" && responseFormat != "base64" {
		badRequest(c, "response must be binary or base64")
		return
	}

	path, ok := h.resolvePath(c)
	if !ok {
		return
	}

	var data []byte
	err := h.run(c, "thumbnail", func() (err error) {
		data, err = h.extractor.ExtractThumbnail(path)
		return err
	})
	if err != nil {
		h.sendExtractError(c, err)
		return
	}

	if responseFormat == "base64" {
		h.sendBase64Response(c, data, preview.FormatJPEG.MimeType())
	} else {
		h.sendImageResponse(c, data, preview.FormatJPEG.MimeType())
	}
}

// GetImage はデコード済みの生ピクセルを返す
func (h *PreviewHandler) GetImage(c *gin.Context) {
	path, ok := h.resolvePath(c)
	if !ok {
		return
	}

	var img *preview.DecodedImage
	err := h.run(c, "full", func() (err error) {
		img, err = h.extractor.ExtractFullImage(path)
		return err
	})
	if err != nil {
		h.sendExtractError(c, err)
		return
	}

	c.Header(HeaderImageWidth, strconv.Itoa(img.Width))
	c.Header(HeaderImageHeight, strconv.Itoa(img.Height))
	c.Header(HeaderImageChannels, strconv.Itoa(img.Channels))
	c.Header(HeaderImageBytesPerChannel, strconv.Itoa(img.BytesPerChannel))
	c.Data(http.StatusOK, "application/octet-stream", img.Pix)
}

// GetInfo はフルデコードせずに画像の情報を返す
func (h *PreviewHandler) GetInfo(c *gin.Context) {
	path, ok := h.resolvePath(c)
	if !ok {
		return
	}

	// ヘッダ解析のみなのでセマフォは使わない
	start := time.Now()
	info, err := h.extractor.Probe(path)
	metrics.ObserveExtraction("probe", err, time.Since(start))
	if err != nil {
		h.sendExtractError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    info,
	})
}

// run はセマフォを取得してから fn を実行し、メトリクスを記録する
func (h *PreviewHandler) run(c *gin.Context, op string, fn func() error) error {
	if err := h.sem.Acquire(c.Request.Context(), 1); err != nil {
		return errBusy
	}
	defer h.sem.Release(1)

	metrics.DecodeStarted()
	defer metrics.DecodeFinished()

	start := time.Now()
	err := fn()
	metrics.ObserveExtraction(op, err, time.Since(start))
	return err
}

var errBusy = errors.New("request cancelled while waiting for a decode slot")

// resolvePath は path クエリをベースディレクトリ配下の絶対パスに変換する
func (h *PreviewHandler) resolvePath(c *gin.Context) (string, bool) {
	rel := c.Query("path")
	if rel == "" {
		badRequest(c, "path is required")
		return "", false
	}

	path, err := utils.ResolveUnder(h.basePath, rel)
	if err != nil {
		h.logger.Warn().
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", rel).
			Err(err).
			Msg("Rejected preview path")
		badRequest(c, "path must be relative to the photo library")
		return "", false
	}
	return path, true
}

// sendExtractError は抽出エラーを HTTP ステータスとエラーコードに変換して返す
func (h *PreviewHandler) sendExtractError(c *gin.Context, err error) {
	if errors.Is(err, errBusy) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "busy",
			"message": "Server is busy, try again later",
		})
		return
	}

	kind := preview.KindOf(err)
	status, code := statusForKind(kind)

	ev := h.logger.Warn()
	if status >= http.StatusInternalServerError {
		ev = h.logger.Error()
	}
	ev.Err(err).
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Str("kind", kind.String()).
		Msg("Failed to extract preview")

	// 絶対パスはクライアントに返さない
	c.JSON(status, gin.H{
		"success": false,
		"error":   code,
		"message": kind.String(),
	})
}

func statusForKind(kind preview.Kind) (int, string) {
	switch kind {
	case preview.KindPathNotFound:
		return http.StatusNotFound, "path_not_found"
	case preview.KindPathUnreadable:
		return http.StatusForbidden, "path_unreadable"
	case preview.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType, "unsupported_format"
	case preview.KindCorruptData:
		return http.StatusUnprocessableEntity, "corrupt_data"
	case preview.KindOutOfMemory:
		return http.StatusRequestEntityTooLarge, "out_of_memory"
	default:
		return http.StatusInternalServerError, "decode_failure"
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "invalid_parameters",
		"message": message,
	})
}

// sendImageResponse は画像レスポンスを送信
func (h *PreviewHandler) sendImageResponse(c *gin.Context, data []byte, contentType string) {
	c.Header("Cache-Control", "private, max-age=300")
	c.Data(http.StatusOK, contentType, data)
}

// sendBase64Response はBase64エンコードされた画像レスポンスを送信
func (h *PreviewHandler) sendBase64Response(c *gin.Context, data []byte, contentType string) {
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"contentType": contentType,
		"base64Data":  base64.StdEncoding.EncodeToString(data),
	})
}
