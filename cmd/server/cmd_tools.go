package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/houzhh15/meetbot/cmd/server/internal/discord"
	"github.com/houzhh15/meetbot/cmd/server/internal/domain/meetings"
	"github.com/houzhh15/meetbot/cmd/server/internal/domain/themes"
	"github.com/houzhh15/meetbot/cmd/server/internal/formatter"
	"github.com/houzhh15/meetbot/cmd/server/internal/notify"
)

func newListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "列出已保存的会议",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			ms, err := a.service(&notify.Recorder{}).List(cmd.Context())
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			return printMeetings(cmd.OutOrStdout(), ms, asJSON)
		},
	}
	c.Flags().Bool("json", false, "以 JSON 输出")
	return c
}

func printMeetings(w io.Writer, ms []meetings.Meeting, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ms)
	}
	_, err := fmt.Fprintln(w, formatter.Listing(ms))
	return err
}

func newDigestCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "digest",
		Short: "立即发送一次每日汇总",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			a, err := loadApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			var notifier notify.Notifier
			recorder := &notify.Recorder{}
			if dryRun || a.cfg.Bot.Token == "" {
				notifier = recorder
				dryRun = true
			} else {
				session, err := discord.NewSession(a.cfg.Bot.Token)
				if err != nil {
					return err
				}
				notifier = notify.NewDispatcher(discord.NewTransport(session), a.log)
			}

			report, err := a.service(notifier).RunDigest(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if dryRun {
				printRecorded(out, recorder.Sent())
			}
			fmt.Fprintf(out, "digest: %d channel(s), %d delivered, %d failed\n", report.Groups, report.Delivered, report.Failed)
			return nil
		},
	}
	c.Flags().Bool("dry-run", false, "只打印汇总内容，不发送")
	return c
}

func printRecorded(w io.Writer, sent []notify.Sent) {
	for _, s := range sent {
		fmt.Fprintf(w, "--- %s -> %s ---\n%s\n\n", s.Kind, s.ChannelID, s.Text)
	}
}

func newThemesCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "themes",
		Short: "列出通知主题并预览效果",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			preview, _ := cmd.Flags().GetString("preview")
			if preview == "" {
				fmt.Fprintln(out, themes.Menu())
				return nil
			}
			key, err := themes.Select(preview)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, formatter.Format(sampleMeeting(key), key))
			return nil
		},
	}
	c.Flags().String("preview", "", "按名称或序号预览主题")
	return c
}

func sampleMeeting(theme string) meetings.Meeting {
	return meetings.Meeting{
		ID:          1,
		Title:       "Sprint Review",
		Agenda:      "1. Demo new features\n2. Collect feedback\n3. Plan next sprint",
		Time:        "10:00",
		ChannelName: "general",
		Theme:       theme,
		CreatedAt:   time.Now(),
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "打印当前配置（敏感信息脱敏）",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(false)
			if err != nil {
				return err
			}
			defer a.Close()
			fmt.Fprintln(cmd.OutOrStdout(), a.cfg.PrintConfig())
			return nil
		},
	}
}
