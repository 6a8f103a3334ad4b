package cmd

import (
	"bytes"
	"encoding/json"
	"image/jpeg"

	"github.com/spf13/cobra"

	"photocull-api/preview"
)

type inspectReport struct {
	Path       string        `json:"path"`
	Info       *preview.Info `json:"info"`
	Full       *rasterReport `json:"full,omitempty"`
	FullError  string        `json:"fullError,omitempty"`
	Thumbnail  *rasterReport `json:"thumbnail,omitempty"`
	ThumbError string        `json:"thumbnailError,omitempty"`
}

type rasterReport struct {
	Width           int `json:"width"`
	Height          int `json:"height"`
	Channels        int `json:"channels,omitempty"`
	BytesPerChannel int `json:"bytesPerChannel,omitempty"`
	Bytes           int `json:"bytes"`
}

func newInspectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path>",
		Short: "Print image information as JSON",
		Long: `Inspect reads a single image, decodes it once in full and once as a thumbnail,
and prints what it found as JSON. Nothing is written to disk.

The path is used as given and is not resolved against the photo library root.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extractor, err := preview.NewFileExtractor(a.cfg.Preview.Options(), nil)
			if err != nil {
				return err
			}

			report, err := inspect(extractor, args[0])
			if err != nil {
				return err
			}
			a.logger.Debug().Str("path", args[0]).Str("format", string(report.Info.Format)).Msg("Inspected image")

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

// inspect は Probe に失敗した場合のみエラーを返す。
// デコード時のエラーはレポートに含める。
func inspect(e preview.Extractor, path string) (*inspectReport, error) {
	info, err := e.Probe(path)
	if err != nil {
		return nil, err
	}
	report := &inspectReport{Path: path, Info: info}

	if img, err := e.ExtractFullImage(path); err != nil {
		report.FullError = err.Error()
	} else {
		report.Full = &rasterReport{
			Width:           img.Width,
			Height:          img.Height,
			Channels:        img.Channels,
			BytesPerChannel: img.BytesPerChannel,
			Bytes:           len(img.Pix),
		}
	}

	if thumb, err := e.ExtractThumbnail(path); err != nil {
		report.ThumbError = err.Error()
	} else {
		r := &rasterReport{Bytes: len(thumb)}
		if cfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb)); err == nil {
			r.Width, r.Height = cfg.Width, cfg.Height
		}
		report.Thumbnail = r
	}
	return report, nil
}
