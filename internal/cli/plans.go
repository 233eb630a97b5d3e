package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"pharmadms/internal/dto"
	"pharmadms/internal/service"
	pkgerrors "pharmadms/pkg/errors"
	"pharmadms/pkg/response"
)

type plansOptions struct {
	customer string
	start    string
	end      string
	page     int
	pageSize int
}

func newPlansCmd() *cobra.Command {
	opts := plansOptions{}
	cmd := &cobra.Command{
		Use:     "plans <employee-code>",
		Short:   "List a representative's visit plans",
		Long:    "List the stored visit plans of one representative, looked up by employee code. Codes match regardless of case.",
		Example: "  visitctl plans TDV001 --customer KH001 --start 2024-11-01 --end 2024-11-30",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlans(cmd, args[0], &opts)
		},
	}
	cmd.Flags().StringVar(&opts.customer, "customer", "", "only plans for this customer code")
	cmd.Flags().StringVar(&opts.start, "start", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.end, "end", "", "last date, YYYY-MM-DD")
	cmd.Flags().IntVar(&opts.page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", dto.DefaultPageSize, "plans per page")
	return cmd
}

func runPlans(cmd *cobra.Command, employeeCode string, opts *plansOptions) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	rep, err := e.repo.Representative.GetByEmployeeCode(ctx, employeeCode)
	if err != nil {
		return lookupError("employee code", employeeCode, err)
	}

	req := &dto.VisitPlanListRequest{
		PaginationRequest: dto.PaginationRequest{Page: opts.page, PageSize: opts.pageSize},
		RepresentativeID:  rep.RepresentativeID,
		StartDate:         opts.start,
		EndDate:           opts.end,
	}
	if opts.customer != "" {
		customer, err := e.repo.Customer.GetByCode(ctx, opts.customer)
		if err != nil {
			return lookupError("customer code", opts.customer, err)
		}
		req.CustomerID = customer.CustomerID
	}

	// 只读查询，不需要物化器
	svc := service.NewVisitPlanService(e.repo, nil, e.cfg.Import.MaxRangeDays, e.logger)
	list, total, err := svc.List(ctx, req)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), response.NewPageData(list, total, req.GetPage(), req.GetPageSize()))
	}
	printPlans(cmd.OutOrStdout(), rep.EmployeeCode, list, total, req.GetPage())
	return nil
}

func lookupError(kind, code string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("unknown %s %q", kind, code)
	}
	return fmt.Errorf("looking up %s %q: %w", kind, code, pkgerrors.WrapStore(err))
}

func printPlans(w io.Writer, employeeCode string, list []dto.VisitPlanResponse, total int64, page int) {
	for _, p := range list {
		customer := "-"
		if p.Customer != nil {
			customer = p.Customer.Code
		}
		fmt.Fprintf(w, "%s  %-10s  %-3s  %s\n", p.VisitDate, customer, p.Frequency, p.Source)
	}
	fmt.Fprintf(w, "%d of %d plans for %s (page %d)\n", len(list), total, employeeCode, page)
}
