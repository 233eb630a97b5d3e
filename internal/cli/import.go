package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pharmadms/internal/dto"
	"pharmadms/internal/service"
)

// errImportAborted 导入被中断；报告照常输出，进程以非零状态退出
var errImportAborted = errors.New("import aborted, rows reported before the interruption are kept")

func newImportCmd() *cobra.Command {
	var operator string
	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import visit plans from a spreadsheet",
		Long:  "Validate every row of the spreadsheet and generate visit plans for the valid rows. Invalid rows are reported and do not stop the import.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], operator)
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "operator user id recorded on the batch (UUID)")
	return cmd
}

func runImport(cmd *cobra.Command, path, operator string) error {
	if operator != "" {
		if _, err := uuid.Parse(operator); err != nil {
			return fmt.Errorf("--operator must be a UUID: %w", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	ctx := cmd.Context()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("import not started: %w", err)
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	svc := service.NewImportService(e.repo, service.NewMaterializer(e.repo, e.logger), &e.cfg.Import, e.logger)

	rows, err := svc.ParseImportFile(f)
	if err != nil {
		return err
	}
	report, err := svc.ImportRows(ctx, rows, service.ImportMeta{
		FileName:   filepath.Base(path),
		OperatorID: operator,
	})
	if err != nil {
		return err
	}

	if isJSON() {
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		printImportReport(cmd.OutOrStdout(), report)
	}
	if report.Aborted {
		return errImportAborted
	}
	return nil
}

func printImportReport(w io.Writer, r *dto.ImportVisitPlanResponse) {
	fmt.Fprintf(w, "batch:   %s\n", r.BatchID)
	fmt.Fprintf(w, "rows:    %d total, %d succeeded, %d failed\n", r.Total, r.SuccessCount, r.Failed)
	fmt.Fprintf(w, "plans:   %d created, %d already existed\n", r.CreatedPlans, r.SkippedPlans)
	if r.Aborted {
		fmt.Fprintln(w, "status:  aborted")
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  row %d: %s\n", e.Row, e.Reason)
	}
}
