package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "designlookup",
		Short: "Design master / yarn spreadsheet lookup",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env 不存在时忽略
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径 (默认: 可执行文件同目录下的 config.toml)")

	rootCmd.AddCommand(
		newServeCmd(),
		newSearchCmd(),
		newConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
