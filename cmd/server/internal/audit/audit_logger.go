package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// AuditAction 审计日志操作类型
type AuditAction string

const (
	ActionCreateMeeting AuditAction = "create_meeting"
	ActionUpdateMeeting AuditAction = "update_meeting"
	ActionDeleteMeeting AuditAction = "delete_meeting"
)

// AuditEntry 审计日志条目
type AuditEntry struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	Operator   string      `json:"operator"`          // 发起操作的聊天用户 ID
	Action     AuditAction `json:"action"`            // 操作类型
	ResourceID string      `json:"resource_id"`       // 会议 ID
	Before     interface{} `json:"before,omitempty"`  // 操作前状态
	After      interface{} `json:"after,omitempty"`   // 操作后状态
	Details    string      `json:"details,omitempty"` // 额外详情 (投递结果等)
}

// AuditLogger 审计日志记录器接口
type AuditLogger interface {
	// LogAction 记录审计日志
	LogAction(operator string, action AuditAction, resourceID string, before, after interface{}, details string) error
}

// FileAuditLogger 基于 lumberjack 轮转文件的 JSONL 审计日志实现
type FileAuditLogger struct {
	w   io.WriteCloser
	now func() time.Time
	mu  sync.Mutex
}

// NewFileAuditLogger 创建审计日志记录器，按大小与保留天数自动轮转
func NewFileAuditLogger(path string) (*FileAuditLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit logs directory: %w", err)
	}
	return &FileAuditLogger{
		w: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    20, // MB
			MaxBackups: 10,
			MaxAge:     90,
			Compress:   true,
		},
		now: time.Now,
	}, nil
}

// LogAction 追加一条 JSONL 审计记录
func (f *FileAuditLogger) LogAction(operator string, action AuditAction, resourceID string, before, after interface{}, details string) error {
	entry := AuditEntry{
		ID:         uuid.NewString(),
		Timestamp:  f.now().UTC(),
		Operator:   operator,
		Action:     action,
		ResourceID: resourceID,
		Before:     before,
		After:      after,
		Details:    details,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// Close 关闭底层文件
func (f *FileAuditLogger) Close() error {
	return f.w.Close()
}

// ReadEntries 读取审计文件中的全部记录 (用于排查与测试)
func ReadEntries(path string) ([]AuditEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log file %s: %w", path, err)
	}

	var entries []AuditEntry
	for i, line := range splitLines(string(data)) {
		if line == "" {
			continue
		}
		var entry AuditEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit entry at %s:%d: %w", path, i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// NopLogger 丢弃所有审计记录
type NopLogger struct{}

func (NopLogger) LogAction(string, AuditAction, string, interface{}, interface{}, string) error {
	return nil
}

// splitLines 按换行符分割字符串 (辅助函数)
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
