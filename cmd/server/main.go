package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "meetbot",
		Short:         "meetbot - Discord 会议排程机器人",
		Long:          "在聊天频道中创建、更新、删除会议并发布主题化通知，每天按频道发送会议汇总。",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newDigestCmd())
	rootCmd.AddCommand(newThemesCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}
