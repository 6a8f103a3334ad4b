// Package cmd は photocull-api のコマンドライン定義
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"photocull-api/config"
)

var version = "dev"

// SetVersion はビルド時に埋め込まれたバージョンを設定する
func SetVersion(v string) {
	version = v
}

// app はコマンド間で共有する状態
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  zerolog.Logger
}

// NewRootCommand はサブコマンドを含むルートコマンドを組み立てる。
// サブコマンド無しで起動した場合は serve と同じ動作をする。
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "photocull-api",
		Short: "Photo preview extraction server",
		Long: `photocull-api serves thumbnails and decoded rasters for the images in a photo library.

Example usage:
  photocull-api                         # Start the HTTP server (same as serve)
  photocull-api serve --port 9090       # Start on another port
  photocull-api inspect shoot/IMG_0001.CR2`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.String("base-path", "", "photo library root")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "", "log format (json, console)")
	_ = a.v.BindPFlag("preview.base_path", flags.Lookup("base-path"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	serve := newServeCommand(a)
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(newInspectCommand(a))
	return root
}

// Execute はルートコマンドを実行する
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) init(logOut io.Writer) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// newLogger は設定に従って zerolog のロガーを作成する
func newLogger(c config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	if w == nil {
		w = os.Stderr
	}
	if c.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", "photocull-api").Logger(), nil
}
