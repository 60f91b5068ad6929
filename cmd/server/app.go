package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/houzhh15/meetbot/cmd/server/internal/audit"
	"github.com/houzhh15/meetbot/cmd/server/internal/config"
	"github.com/houzhh15/meetbot/cmd/server/internal/domain/meetings"
	"github.com/houzhh15/meetbot/cmd/server/internal/domain/themes"
	"github.com/houzhh15/meetbot/cmd/server/internal/notify"
	"github.com/houzhh15/meetbot/cmd/server/internal/services"
	"github.com/houzhh15/meetbot/pkg/logger"
)

// app 保存各子命令共用的配置、日志与存储
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	store *meetings.FileStore
	audit audit.AuditLogger

	closers []func() error
}

// loadApp 加载并校验配置；requireBot 为 true 时要求机器人凭据完整
func loadApp(requireBot bool) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.ValidateConfig(cfg, themes.Valid, requireBot); err != nil {
		return nil, err
	}
	return newApp(cfg, afero.NewOsFs())
}

func newApp(cfg *config.Config, fs afero.Fs) (*app, error) {
	log, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.LogEnvironment(),
		WithSource:  !cfg.IsProduction(),
		File:        cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	a := &app{
		cfg:   cfg,
		log:   log.With("component", "meetbot"),
		store: meetings.NewFileStore(fs, cfg.Data.MeetingsFile, log),
		audit: audit.NopLogger{},
	}
	if cfg.Data.AuditLogFile != "" {
		fileAudit, err := audit.NewFileAuditLogger(cfg.Data.AuditLogFile)
		if err != nil {
			a.log.Warn("audit log disabled", "path", cfg.Data.AuditLogFile, "error", err)
		} else {
			a.audit = fileAudit
			a.closers = append(a.closers, fileAudit.Close)
		}
	}
	return a, nil
}

// service 构建会议服务，notifier 决定通知是真实发送还是仅记录
func (a *app) service(notifier notify.Notifier) services.MeetingService {
	return services.NewMeetingService(a.store, notifier, a.cfg.Channels, services.Options{
		DefaultTheme: a.cfg.Bot.DefaultTheme,
		DigestTheme:  a.cfg.Digest.Theme,
		Audit:        a.audit,
		Logger:       logger.L(),
	})
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
}
