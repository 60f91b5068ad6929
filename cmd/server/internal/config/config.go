package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBotName     = "Meeting Bot"
	DefaultTheme       = "corporate"
	DefaultMeetingFile = "meetings.json"
	DefaultDigestCron  = "0 8 * * *"
	DefaultHTTPHost    = "127.0.0.1"
)

// Config 统一配置结构
type Config struct {
	Server   ServerConfig
	Bot      BotConfig
	Channels ChannelDirectory
	Data     DataConfig
	Digest   DigestConfig
	Log      LogConfig
}

// ServerConfig 管理 API 配置
type ServerConfig struct {
	Env  string // dev, staging, production
	Host string // 监听地址，默认仅本机
	Port string // 为空时不启动管理 API
}

// BotConfig 聊天机器人身份配置
type BotConfig struct {
	Token            string
	CommandChannelID string
	Name             string
	DefaultTheme     string
}

// DataConfig 数据文件配置
type DataConfig struct {
	MeetingsFile string
	AuditLogFile string
}

// DigestConfig 每日汇总配置
type DigestConfig struct {
	Cron  string
	Theme string
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // console, json
	File   string
}

// ChannelDirectory maps a lower-cased logical channel name to its delivery target id.
type ChannelDirectory map[string]string

// Lookup resolves a channel name case-insensitively.
func (d ChannelDirectory) Lookup(name string) (string, bool) {
	id, ok := d[NormalizeChannel(name)]
	return id, ok
}

// Names returns the configured channel names in sorted order.
func (d ChannelDirectory) Names() []string {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NormalizeChannel trims, drops a leading '#' and lower-cases a channel name.
func NormalizeChannel(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "#"))
}

// channelsFile is the YAML layout of CHANNELS_FILE.
type channelsFile struct {
	Channels map[string]string `yaml:"channels"`
}

// LoadConfig 从 .env 与环境变量加载配置
func LoadConfig() (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Env:  getEnv("ENV", "dev"),
			Host: getEnv("HTTP_HOST", DefaultHTTPHost),
			Port: os.Getenv("HTTP_PORT"),
		},
		Bot: BotConfig{
			Token:            os.Getenv("BOT_TOKEN"),
			CommandChannelID: os.Getenv("BOT_CHANNEL_ID"),
			Name:             getEnv("BOT_NAME", DefaultBotName),
			DefaultTheme:     strings.ToLower(getEnv("THEME", DefaultTheme)),
		},
		Data: DataConfig{
			MeetingsFile: getEnv("MEETINGS_FILE", DefaultMeetingFile),
			AuditLogFile: getEnv("AUDIT_LOG_FILE", "audit/meetings.jsonl"),
		},
		Digest: DigestConfig{
			Cron: getEnv("DIGEST_CRON", DefaultDigestCron),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
			File:   os.Getenv("LOG_FILE"),
		},
	}
	if _, set := os.LookupEnv("HTTP_PORT"); !set {
		cfg.Server.Port = "8090"
	}
	cfg.Digest.Theme = strings.ToLower(getEnv("DIGEST_THEME", cfg.Bot.DefaultTheme))

	channels, err := parseChannels(os.Getenv("NOTIFICATION_CHANNELS"))
	if err != nil {
		return nil, err
	}
	if path := os.Getenv("CHANNELS_FILE"); path != "" {
		fromFile, err := loadChannelsFile(path)
		if err != nil {
			return nil, err
		}
		for name, id := range fromFile {
			channels[name] = id
		}
	}
	cfg.Channels = channels

	return cfg, nil
}

// parseChannels 解析 NOTIFICATION_CHANNELS 中的 JSON 对象
func parseChannels(raw string) (ChannelDirectory, error) {
	dir := ChannelDirectory{}
	if strings.TrimSpace(raw) == "" {
		return dir, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("parse NOTIFICATION_CHANNELS: %w", err)
	}
	for name, id := range m {
		dir[NormalizeChannel(name)] = strings.TrimSpace(id)
	}
	return dir, nil
}

// loadChannelsFile 读取 YAML 频道目录文件
func loadChannelsFile(path string) (ChannelDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channels file: %w", err)
	}
	var f channelsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse channels file: %w", err)
	}
	dir := ChannelDirectory{}
	for name, id := range f.Channels {
		dir[NormalizeChannel(name)] = strings.TrimSpace(id)
	}
	return dir, nil
}

// ValidateConfig 验证配置的有效性；themeValid 用于校验主题键
// requireBot 为 false 时（离线子命令）不检查机器人凭据
func ValidateConfig(cfg *Config, themeValid func(string) bool, requireBot bool) error {
	var errors []string

	// 1. 机器人凭据
	if requireBot {
		if cfg.Bot.Token == "" {
			errors = append(errors, "BOT_TOKEN is required")
		}
		if cfg.Bot.CommandChannelID == "" {
			errors = append(errors, "BOT_CHANNEL_ID is required")
		}
	}

	// 2. 频道目录
	for name, id := range cfg.Channels {
		if name == "" || id == "" {
			errors = append(errors, fmt.Sprintf("invalid channel mapping %q -> %q", name, id))
		}
	}

	// 3. 主题
	if themeValid != nil {
		if !themeValid(cfg.Bot.DefaultTheme) {
			errors = append(errors, fmt.Sprintf("invalid THEME: %s", cfg.Bot.DefaultTheme))
		}
		if !themeValid(cfg.Digest.Theme) {
			errors = append(errors, fmt.Sprintf("invalid DIGEST_THEME: %s", cfg.Digest.Theme))
		}
	}

	// 4. 端口验证
	if cfg.Server.Port != "" {
		if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid HTTP_PORT value: %s (must be 1-65535)", cfg.Server.Port))
		}
	}

	// 5. 日志级别验证
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errors = append(errors, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	// 6. 日志格式验证
	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[cfg.Log.Format] {
		errors = append(errors, fmt.Sprintf("invalid LOG_FORMAT: %s (must be: console, json)", cfg.Log.Format))
	}

	// 7. 环境验证
	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true, "prod": true}
	if !validEnvs[cfg.Server.Env] {
		errors = append(errors, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	if cfg.Data.MeetingsFile == "" {
		errors = append(errors, "MEETINGS_FILE cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// LogEnvironment 返回传给 logger 的环境名
func (c *Config) LogEnvironment() string {
	if c.Log.Format == "json" || c.IsProduction() {
		return "prod"
	}
	return "dev"
}

// GetServerAddr 获取管理 API 监听地址；管理 API 无鉴权，未配置 Host 时只绑定本机
func (c *Config) GetServerAddr() string {
	host := c.Server.Host
	if host == "" {
		host = DefaultHTTPHost
	}
	return net.JoinHostPort(host, c.Server.Port)
}

// PrintConfig 打印配置（脱敏）
func (c *Config) PrintConfig() string {
	var channels []string
	for _, name := range c.Channels.Names() {
		channels = append(channels, fmt.Sprintf("    - %s: %s", name, c.Channels[name]))
	}
	if len(channels) == 0 {
		channels = append(channels, "    <none>")
	}
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Admin API Addr: %s
  Bot:
    - Name: %s
    - Token: %s
    - Command Channel: %s
    - Default Theme: %s
  Channels:
%s
  Data:
    - Meetings File: %s
    - Audit Log: %s
  Digest:
    - Cron: %s
    - Theme: %s
  Logging:
    - Level: %s
    - Format: %s
    - File: %s`,
		c.Server.Env,
		c.apiAddr(),
		c.Bot.Name,
		maskSecret(c.Bot.Token),
		orNone(c.Bot.CommandChannelID),
		c.Bot.DefaultTheme,
		strings.Join(channels, "\n"),
		c.Data.MeetingsFile,
		c.Data.AuditLogFile,
		c.Digest.Cron,
		c.Digest.Theme,
		c.Log.Level,
		c.Log.Format,
		orNone(c.Log.File),
	)
}

// 辅助函数

func (c *Config) apiAddr() string {
	if c.Server.Port == "" {
		return orNone("")
	}
	return c.GetServerAddr()
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func orNone(v string) string {
	if v == "" {
		return "<not set>"
	}
	return v
}

// maskSecret 对敏感信息进行脱敏
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	return fmt.Sprintf("*** (%d chars)", len(secret))
}
