package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config 定义日志初始化配置
// Level 支持 debug/info/warn/error，Environment 为 prod 时输出 JSON
// File 非空时同时写入按大小轮转的日志文件
type Config struct {
	Level       string
	Environment string
	WithSource  bool
	File        string

	// Output 覆盖默认的 stdout，主要用于测试
	Output io.Writer
}

var (
	global *slog.Logger
	once   sync.Once
)

func levelFromString(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.New("invalid log level: " + level)
	}
}

func writerFor(cfg Config) io.Writer {
	var out io.Writer = os.Stdout
	if cfg.Output != nil {
		out = cfg.Output
	}
	if cfg.File == "" {
		return out
	}
	return io.MultiWriter(out, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	})
}

// New 根据配置创建新的 slog.Logger，不设置全局实例
func New(cfg Config) (*slog.Logger, error) {
	lvl, err := levelFromString(cfg.Level)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl, AddSource: cfg.WithSource}
	w := writerFor(cfg)
	var handler slog.Handler
	if strings.ToLower(cfg.Environment) == "prod" || strings.ToLower(cfg.Environment) == "production" {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler), nil
}

// Init 初始化全局日志实例，重复调用将返回首次创建的 logger
func Init(cfg Config) (*slog.Logger, error) {
	var initErr error
	once.Do(func() {
		global, initErr = New(cfg)
		if initErr == nil {
			slog.SetDefault(global)
		}
	})
	return global, initErr
}

// L 返回已初始化的全局 logger，未初始化时回退到 slog.Default
func L() *slog.Logger {
	if global == nil {
		return slog.Default()
	}
	return global
}

// LogDispatch 记录一次通知投递的结构化日志
// kind: create/update/moved/cancel/digest
// target: 投递目标频道 ID
// step: 失败所在阶段 resolve/permission/send（成功时为空）
func LogDispatch(logger *slog.Logger, kind, target string, durationMs int64, step string, err error) {
	attrs := []slog.Attr{
		slog.String("kind", kind),
		slog.String("target", target),
		slog.Int64("duration_ms", durationMs),
	}

	if err != nil {
		attrs = append(attrs, slog.String("step", step), slog.String("error", err.Error()))
		logger.LogAttrs(context.Background(), slog.LevelError, "notification failed", attrs...)
		return
	}
	logger.LogAttrs(context.Background(), slog.LevelInfo, "notification delivered", attrs...)
}
