package services

import (
	"context"
	"fmt"

	"github.com/houzhh15/meetbot/cmd/server/internal/domain/meetings"
	"github.com/houzhh15/meetbot/cmd/server/internal/formatter"
	"github.com/houzhh15/meetbot/cmd/server/internal/notify"
	"github.com/houzhh15/meetbot/pkg/metrics"
)

type channelGroup struct {
	channelID string
	meetings  []meetings.Meeting
}

// groupByChannel groups meetings by delivery target, keeping first-seen channel order
// and store order inside each group.
func groupByChannel(ms []meetings.Meeting) []channelGroup {
	index := map[string]int{}
	var groups []channelGroup
	for _, m := range ms {
		i, ok := index[m.ChannelID]
		if !ok {
			i = len(groups)
			index[m.ChannelID] = i
			groups = append(groups, channelGroup{channelID: m.ChannelID})
		}
		groups[i].meetings = append(groups[i].meetings, m)
	}
	return groups
}

// RunDigest 发送每日汇总：每个频道一条消息；会议没有日期，所有已保存会议每天都会出现
func (s *meetingService) RunDigest(ctx context.Context) (DigestReport, error) {
	ms, err := s.store.LoadAll(ctx)
	if err != nil {
		metrics.RecordDigestRun("error")
		return DigestReport{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if len(ms) == 0 {
		metrics.RecordDigestRun("empty")
		s.log.Info("digest skipped, no meetings")
		return DigestReport{}, nil
	}

	var report DigestReport
	for _, g := range groupByChannel(ms) {
		report.Groups++
		text := formatter.Digest(g.meetings[0].ChannelName, g.meetings, s.digestTheme)
		if err := s.notifier.Dispatch(ctx, notify.KindDigest, g.channelID, text); err != nil {
			report.Failed++
			continue
		}
		report.Delivered++
	}

	metrics.RecordDigestRun("sent")
	s.log.Info("digest sent", "groups", report.Groups, "delivered", report.Delivered, "failed", report.Failed)
	return report, nil
}
