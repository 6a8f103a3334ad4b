package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"photocull-api/preview"
)

// EnvPrefix は環境変数のプレフィックス (例: PHOTOCULL_SERVER_PORT)
const EnvPrefix = "PHOTOCULL"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Preview PreviewConfig `mapstructure:"preview"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port                 string `mapstructure:"port" validate:"required"`
	Mode                 string `mapstructure:"mode" validate:"oneof=debug release test"`
	MaxConcurrentDecodes int64  `mapstructure:"max_concurrent_decodes" validate:"min=1"`
}

type PreviewConfig struct {
	BasePath         string `mapstructure:"base_path" validate:"required"`
	MaxDimension     int    `mapstructure:"max_dimension" validate:"min=16,max=16384"`
	Quality          int    `mapstructure:"quality" validate:"min=1,max=100"`
	Channels         int    `mapstructure:"channels" validate:"oneof=3 4"`
	PreferEmbedded   bool   `mapstructure:"prefer_embedded"`
	ApplyOrientation bool   `mapstructure:"apply_orientation"`
	MaxPixelBytes    int64  `mapstructure:"max_pixel_bytes" validate:"min=1"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// SetDefaults はデフォルト設定を登録する。キーが登録されていないと環境変数が反映されない。
func SetDefaults(v *viper.Viper) {
	defaults := preview.DefaultOptions()

	v.SetDefault("server.port", ":8081")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.max_concurrent_decodes", 4)

	v.SetDefault("preview.base_path", "./data")
	v.SetDefault("preview.max_dimension", defaults.MaxDimension)
	v.SetDefault("preview.quality", defaults.Quality)
	v.SetDefault("preview.channels", defaults.Channels)
	v.SetDefault("preview.prefer_embedded", defaults.PreferEmbedded)
	v.SetDefault("preview.apply_orientation", defaults.ApplyOrientation)
	v.SetDefault("preview.max_pixel_bytes", defaults.MaxPixelBytes)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load はデフォルト値、設定ファイル、環境変数の順に設定を読み込む
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// ポート番号だけの場合は : を付ける
	if cfg.Server.Port != "" && !strings.Contains(cfg.Server.Port, ":") {
		cfg.Server.Port = ":" + cfg.Server.Port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は struct タグに従って設定値を検証する
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return fmt.Errorf("invalid config: %w", err)
}

// Options は抽出オプションに変換する
func (p PreviewConfig) Options() *preview.Options {
	return &preview.Options{
		MaxDimension:     p.MaxDimension,
		Quality:          p.Quality,
		Channels:         p.Channels,
		PreferEmbedded:   p.PreferEmbedded,
		ApplyOrientation: p.ApplyOrientation,
		MaxPixelBytes:    p.MaxPixelBytes,
	}
}
