package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/houzhh15/meetbot/cmd/server/internal/audit"
	"github.com/houzhh15/meetbot/cmd/server/internal/config"
	"github.com/houzhh15/meetbot/cmd/server/internal/domain/meetings"
	"github.com/houzhh15/meetbot/cmd/server/internal/domain/themes"
	"github.com/houzhh15/meetbot/cmd/server/internal/formatter"
	"github.com/houzhh15/meetbot/cmd/server/internal/notify"
)

// 错误定义
var (
	ErrMissingField   = errors.New("missing required field")
	ErrUnknownChannel = errors.New("unknown channel")
	ErrEmptyPatch     = errors.New("nothing to update")
	ErrStorage        = errors.New("meeting storage unavailable")
)

// UnknownChannelError carries the channel names the directory does know.
type UnknownChannelError struct {
	Name  string
	Valid []string
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("unknown channel %q (valid: %s)", e.Name, strings.Join(e.Valid, ", "))
}

func (e *UnknownChannelError) Is(target error) bool { return target == ErrUnknownChannel }

// Directory resolves logical channel names to delivery targets.
type Directory interface {
	Lookup(name string) (string, bool)
	Names() []string
}

// Draft holds the fields of a meeting to be created.
type Draft struct {
	Title       string
	Agenda      string
	Time        string
	ChannelName string
	Theme       string
}

// Missing lists the mandatory fields that are blank.
func (d Draft) Missing() []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"title", d.Title},
		{"agenda", d.Agenda},
		{"time", d.Time},
		{"channelName", d.ChannelName},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Patch holds the fields to change on an existing meeting. Blank fields are kept.
type Patch struct {
	Title       string
	Agenda      string
	Time        string
	ChannelName string
	Theme       string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return strings.TrimSpace(p.Title+p.Agenda+p.Time+p.ChannelName+p.Theme) == ""
}

// CreateResult 创建结果；Delivered 为 false 时会议仍已保存
type CreateResult struct {
	Meeting     meetings.Meeting
	Delivered   bool
	DeliveryErr error
}

// UpdateResult 更新结果
type UpdateResult struct {
	Meeting        meetings.Meeting
	Previous       meetings.Meeting
	Moved          bool
	MovedDelivered bool
	Delivered      bool
}

// DeleteResult 删除结果
type DeleteResult struct {
	Meeting   meetings.Meeting
	Delivered bool
}

// DigestReport summarises one digest run.
type DigestReport struct {
	Groups    int
	Delivered int
	Failed    int
}

// MeetingService 会议生命周期服务接口，命令与对话两条路径共用
type MeetingService interface {
	// Create 校验并保存新会议，然后向目标频道发送通知
	Create(ctx context.Context, operator string, d Draft) (CreateResult, error)

	// Update 更新会议；频道变化时先通知旧频道
	Update(ctx context.Context, operator string, id int, p Patch) (UpdateResult, error)

	// Delete 删除会议并向其频道发送取消通知
	Delete(ctx context.Context, operator string, id int) (DeleteResult, error)

	// Get 获取单个会议
	Get(ctx context.Context, id int) (meetings.Meeting, error)

	// List 获取全部会议（存储顺序）
	List(ctx context.Context) ([]meetings.Meeting, error)

	// RunDigest 按频道分组发送每日汇总
	RunDigest(ctx context.Context) (DigestReport, error)

	// ChannelNames 返回可用频道名
	ChannelNames() []string
}

// Options 服务可选参数
type Options struct {
	DefaultTheme string
	DigestTheme  string
	Audit        audit.AuditLogger
	Logger       *slog.Logger
	Now          func() time.Time
}

// meetingService 会议服务实现
type meetingService struct {
	store    meetings.Store
	notifier notify.Notifier
	channels Directory
	audit    audit.AuditLogger
	log      *slog.Logger
	now      func() time.Time

	defaultTheme string
	digestTheme  string
}

// NewMeetingService 创建会议服务实例
func NewMeetingService(store meetings.Store, notifier notify.Notifier, channels Directory, opts Options) MeetingService {
	s := &meetingService{
		store:        store,
		notifier:     notifier,
		channels:     channels,
		audit:        opts.Audit,
		log:          opts.Logger,
		now:          opts.Now,
		defaultTheme: opts.DefaultTheme,
		digestTheme:  opts.DigestTheme,
	}
	if s.audit == nil {
		s.audit = audit.NopLogger{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", "meeting-service")
	if s.now == nil {
		s.now = time.Now
	}
	if !themes.Valid(s.defaultTheme) {
		s.defaultTheme = config.DefaultTheme
	}
	if !themes.Valid(s.digestTheme) {
		s.digestTheme = s.defaultTheme
	}
	return s
}

func (s *meetingService) ChannelNames() []string {
	return s.channels.Names()
}

func (s *meetingService) resolveChannel(name string) (string, string, error) {
	normalized := config.NormalizeChannel(name)
	id, ok := s.channels.Lookup(normalized)
	if !ok {
		return "", "", &UnknownChannelError{Name: name, Valid: s.channels.Names()}
	}
	return normalized, id, nil
}

func (s *meetingService) Create(ctx context.Context, operator string, d Draft) (CreateResult, error) {
	if missing := d.Missing(); len(missing) > 0 {
		return CreateResult{}, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	t := strings.TrimSpace(d.Time)
	if !meetings.ValidTime(t) {
		return CreateResult{}, fmt.Errorf("%w: %s", meetings.ErrInvalidTime, d.Time)
	}
	channelName, channelID, err := s.resolveChannel(d.ChannelName)
	if err != nil {
		return CreateResult{}, err
	}
	theme := s.defaultTheme
	if strings.TrimSpace(d.Theme) != "" {
		if theme, err = themes.Select(d.Theme); err != nil {
			return CreateResult{}, err
		}
	}

	var created meetings.Meeting
	err = s.store.Update(ctx, func(ms []meetings.Meeting) ([]meetings.Meeting, error) {
		created = meetings.Meeting{
			ID:          meetings.NextID(ms),
			Title:       strings.TrimSpace(d.Title),
			Agenda:      strings.TrimSpace(d.Agenda),
			Time:        t,
			ChannelName: channelName,
			ChannelID:   channelID,
			Theme:       theme,
			CreatedAt:   s.now(),
		}
		return append(ms, created), nil
	})
	if err != nil {
		return CreateResult{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	s.log.Info("meeting created", "id", created.ID, "channel", channelName, "operator", operator)

	res := CreateResult{Meeting: created, Delivered: true}
	if err := s.notifier.Dispatch(ctx, notify.KindCreate, channelID, formatter.Format(created, theme)); err != nil {
		res.Delivered, res.DeliveryErr = false, err
	}
	s.record(operator, audit.ActionCreateMeeting, created.ID, nil, created, res.Delivered)
	return res, nil
}

func (s *meetingService) Update(ctx context.Context, operator string, id int, p Patch) (UpdateResult, error) {
	if p.IsEmpty() {
		return UpdateResult{}, ErrEmptyPatch
	}
	t := strings.TrimSpace(p.Time)
	if t != "" && !meetings.ValidTime(t) {
		return UpdateResult{}, fmt.Errorf("%w: %s", meetings.ErrInvalidTime, p.Time)
	}
	var (
		channelName, channelID string
		err                    error
	)
	if strings.TrimSpace(p.ChannelName) != "" {
		if channelName, channelID, err = s.resolveChannel(p.ChannelName); err != nil {
			return UpdateResult{}, err
		}
	}
	theme := ""
	if strings.TrimSpace(p.Theme) != "" {
		if theme, err = themes.Select(p.Theme); err != nil {
			return UpdateResult{}, err
		}
	}

	var res UpdateResult
	err = s.store.Update(ctx, func(ms []meetings.Meeting) ([]meetings.Meeting, error) {
		idx := meetings.IndexOf(ms, id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %d", meetings.ErrNotFound, id)
		}
		prev := ms[idx]
		next := prev
		if v := strings.TrimSpace(p.Title); v != "" {
			next.Title = v
		}
		if v := strings.TrimSpace(p.Agenda); v != "" {
			next.Agenda = v
		}
		if t != "" {
			next.Time = t
		}
		if theme != "" {
			next.Theme = theme
		}
		if channelName != "" {
			next.ChannelName, next.ChannelID = channelName, channelID
		} else if current, ok := s.channels.Lookup(prev.ChannelName); ok {
			// refresh the directory snapshot on every write
			next.ChannelID = current
		}
		stamp := s.now()
		next.UpdatedAt = &stamp

		res.Previous, res.Meeting = prev, next
		return meetings.ReplaceAt(ms, idx, next), nil
	})
	if err != nil {
		if errors.Is(err, meetings.ErrNotFound) {
			return UpdateResult{}, err
		}
		return UpdateResult{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	s.log.Info("meeting updated", "id", id, "channel", res.Meeting.ChannelName, "operator", operator)

	if res.Previous.ChannelID != res.Meeting.ChannelID {
		res.Moved = true
		err := s.notifier.Dispatch(ctx, notify.KindMoved, res.Previous.ChannelID, formatter.Moved(res.Meeting, res.Meeting.ChannelName))
		res.MovedDelivered = err == nil
	}
	res.Delivered = s.notifier.Dispatch(ctx, notify.KindUpdate, res.Meeting.ChannelID, formatter.Updated(res.Meeting)) == nil

	s.record(operator, audit.ActionUpdateMeeting, id, res.Previous, res.Meeting, res.Delivered)
	return res, nil
}

func (s *meetingService) Delete(ctx context.Context, operator string, id int) (DeleteResult, error) {
	var removed meetings.Meeting
	err := s.store.Update(ctx, func(ms []meetings.Meeting) ([]meetings.Meeting, error) {
		out, m, ok := meetings.RemoveByID(ms, id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", meetings.ErrNotFound, id)
		}
		removed = m
		return out, nil
	})
	if err != nil {
		if errors.Is(err, meetings.ErrNotFound) {
			return DeleteResult{}, err
		}
		return DeleteResult{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	s.log.Info("meeting deleted", "id", id, "operator", operator)

	res := DeleteResult{Meeting: removed}
	res.Delivered = s.notifier.Dispatch(ctx, notify.KindCancel, removed.ChannelID, formatter.Cancellation(removed)) == nil
	s.record(operator, audit.ActionDeleteMeeting, id, removed, nil, res.Delivered)
	return res, nil
}

func (s *meetingService) Get(ctx context.Context, id int) (meetings.Meeting, error) {
	ms, err := s.List(ctx)
	if err != nil {
		return meetings.Meeting{}, err
	}
	m, ok := meetings.FindByID(ms, id)
	if !ok {
		return meetings.Meeting{}, fmt.Errorf("%w: %d", meetings.ErrNotFound, id)
	}
	return m, nil
}

func (s *meetingService) List(ctx context.Context) ([]meetings.Meeting, error) {
	ms, err := s.store.LoadAll(ctx)
	if err != nil {
		return ms, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return ms, nil
}

func (s *meetingService) record(operator string, action audit.AuditAction, id int, before, after interface{}, delivered bool) {
	details := "delivered"
	if !delivered {
		details = "delivery failed"
	}
	if err := s.audit.LogAction(operator, action, strconv.Itoa(id), before, after, details); err != nil {
		s.log.Warn("failed to write audit entry", "action", action, "id", id, "error", err)
	}
}
