package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"designlookup/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "配置文件管理",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "写入默认配置文件",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("配置文件已存在: %s (使用 --force 覆盖)", path)
			}

			if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
				return fmt.Errorf("写入配置文件失败: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已写入配置文件: %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "覆盖已有的配置文件")

	return cmd
}
