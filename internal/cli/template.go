package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pharmadms/config"
	"pharmadms/internal/service"
)

func newTemplateCmd() *cobra.Command {
	limits := config.ImportConfig{}
	cmd := &cobra.Command{
		Use:   "template <out.xlsx>",
		Short: "Write the import spreadsheet template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTemplate(cmd, args[0], &limits)
		},
	}
	cmd.Flags().IntVar(&limits.MaxRows, "max-rows", 5000, "row limit shown in the template")
	cmd.Flags().IntVar(&limits.MaxRangeDays, "max-range-days", 366, "date span limit shown in the template guide")
	return cmd
}

// runTemplate 离线生成，不读取配置文件也不连接数据库
func runTemplate(cmd *cobra.Command, out string, limits *config.ImportConfig) error {
	svc := service.NewImportService(nil, nil, limits, zap.NewNop())
	buf, err := svc.BuildTemplate()
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "template written to %s\n", out)
	return nil
}
