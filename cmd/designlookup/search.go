package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"designlookup/internal/cli"
	"designlookup/internal/config"
	"designlookup/internal/lookup"
	"designlookup/internal/model"
	"designlookup/internal/service/excel"
)

func newSearchCmd() *cobra.Command {
	var (
		designsPath string
		yarnsPath   string
		query       string
		outPath     string
		maxRows     int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "在命令行中查询两个表格并可导出结果",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(query) == "" {
				return errors.New("请输入设计名称 (--query)")
			}
			if designsPath == "" && yarnsPath == "" {
				return errors.New("至少需要 --designs 或 --yarns 之一")
			}

			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				cfg = config.DefaultConfig()
			}
			engine := lookup.NewEngine(lookup.Options{
				SuggestionLimit: cfg.Lookup.SuggestionLimit,
				MissingKey:      lookup.ParseMissingKeyPolicy(cfg.Lookup.MissingKey),
			})

			designs, err := loadDataset(engine, designsPath)
			if err != nil {
				return err
			}
			yarns, err := loadDataset(engine, yarnsPath)
			if err != nil {
				return err
			}

			result, err := engine.Search(designs, yarns, query)
			if err != nil {
				return err
			}
			cli.RenderResult(cmd.OutOrStdout(), result, maxRows)

			if outPath == "" {
				return nil
			}
			file, err := excel.NewExporter().Export(result)
			if err != nil {
				if errors.Is(err, excel.ErrNothingToExport) {
					fmt.Fprintln(cmd.OutOrStdout(), "没有可导出的数据")
					return nil
				}
				return err
			}
			defer file.Close()
			if err := file.SaveAs(outPath); err != nil {
				return fmt.Errorf("写入导出文件失败: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已导出: %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&designsPath, "designs", "", "设计主表 (.xlsx / .csv)")
	cmd.Flags().StringVar(&yarnsPath, "yarns", "", "纱线表 (.xlsx / .csv)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "设计名称（子串，不区分大小写）")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "导出结果到 xlsx")
	cmd.Flags().IntVar(&maxRows, "max-rows", cli.DefaultMaxRows, "每个表最多显示的行数")

	return cmd
}

// loadDataset 读取并规范化；路径为空时返回 nil（视为没有命中）
func loadDataset(engine *lookup.Engine, path string) (*model.Dataset, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &excel.IngestionError{Filename: path, Err: err}
	}
	defer f.Close()

	raw, err := excel.NewParser().Parse(path, f)
	if err != nil {
		return nil, err
	}
	return engine.Normalize(raw), nil
}
