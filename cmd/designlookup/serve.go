package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"designlookup/internal/config"
	"designlookup/internal/server"
	"designlookup/internal/util"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动查询服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("==========================================")
			fmt.Println("  Design Lookup - 设计 / 纱线查询工具")
			fmt.Println("==========================================")

			// 加载配置
			cfg, info, err := config.LoadConfigWithInfo(configPath)
			if err != nil {
				log.Printf("加载配置失败，使用默认配置: %v", err)
				cfg = config.DefaultConfig()
				info = config.LoadConfigInfo{}
			}

			// 命令行参数覆盖配置
			applyServeFlags(cmd.Flags(), cfg, info)

			srv, err := server.NewServer(cfg)
			if err != nil {
				return fmt.Errorf("创建服务失败: %w", err)
			}
			defer srv.Close()

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

			go func() {
				fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
				if err := srv.Run(addr); err != nil {
					log.Fatalf("服务启动失败: %v", err)
				}
			}()

			switch {
			case cfg.Server.DevMode:
				fmt.Printf("开发模式: 请访问 %s\n", url)
			case cfg.Server.OpenBrowser:
				fmt.Printf("正在打开浏览器: %s\n", url)
				if err := util.OpenBrowser(url); err != nil {
					fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
				}
			default:
				fmt.Printf("请访问 %s\n", url)
			}

			fmt.Println("\n按 Ctrl+C 停止服务...")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			fmt.Println("\n正在关闭服务...")
			return nil
		},
	}

	cmd.Flags().Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	cmd.Flags().Bool("dev", false, "开发模式")
	cmd.Flags().String("data-dir", "", "数据目录 (覆盖配置文件)")
	cmd.Flags().Bool("no-open", false, "不自动打开浏览器")

	return cmd
}

// applyServeFlags 命令行参数覆盖配置
// config.toml 显式配置了 port 时以配置文件为准
func applyServeFlags(flags *pflag.FlagSet, cfg *config.AppConfig, info config.LoadConfigInfo) {
	if flags.Changed("port") && !info.PortSpecified {
		if port, err := flags.GetInt("port"); err == nil {
			cfg.Server.Port = port
		}
	}
	if dev, _ := flags.GetBool("dev"); dev {
		cfg.Server.DevMode = true
	}
	if dir, _ := flags.GetString("data-dir"); dir != "" {
		cfg.Data.DataDir = dir
	}
	if noOpen, _ := flags.GetBool("no-open"); noOpen {
		cfg.Server.OpenBrowser = false
	}
}
