// Command shiftcalc computes weekly pay from a workbook file or database
// without running the server.
//
//	shiftcalc seed > week.json
//	shiftcalc payments --file week.json --week 1
//	shiftcalc totals --db shiftpay.db --week 2 --json
//	shiftcalc validate --file legacy.json
//	shiftcalc import --file legacy.json --db shiftpay.db
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/shift-payroll/config"
	"github.com/warp/shift-payroll/factory"
	"github.com/warp/shift-payroll/payroll"
	"github.com/warp/shift-payroll/store/sqlite"
)

const appVersion = "0.3.0"

type options struct {
	file   string
	dbPath string
	week   int
	asJSON bool
	empty  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "shiftcalc",
		Short:         "Weekly shift pay calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Version = appVersion
	root.SetVersionTemplate("shiftcalc v{{.Version}}\n")

	root.PersistentFlags().StringVar(&opts.file, "file", "", "Workbook JSON file (native or legacy weeks array)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database to read instead of --file")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print JSON instead of a table")

	payments := &cobra.Command{
		Use:   "payments",
		Short: "Per-person hours and pay for one week",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			wb, err := opts.workbook(cmd.Context(), env)
			if err != nil {
				return err
			}
			w, err := wb.Week(opts.week - 1)
			if err != nil {
				return err
			}
			results := engineFor(env, wb).ComputeAll(w)
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), results)
			}
			printPayments(cmd.OutOrStdout(), results)
			return nil
		},
	}
	payments.Flags().IntVar(&opts.week, "week", 1, "Week number (1-based)")

	totals := &cobra.Command{
		Use:   "totals",
		Short: "Sum of all payments for one week, or every week with --week 0",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			wb, err := opts.workbook(cmd.Context(), env)
			if err != nil {
				return err
			}
			engine := engineFor(env, wb)

			weeks := []int{opts.week - 1}
			if opts.week == 0 {
				weeks = weeks[:0]
				for i := range wb.Weeks {
					weeks = append(weeks, i)
				}
			}

			all := make([]payroll.WeekTotals, 0, len(weeks))
			for _, i := range weeks {
				w, err := wb.Week(i)
				if err != nil {
					return err
				}
				all = append(all, engine.ComputeWeekTotals(w))
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), all)
			}
			printTotals(cmd.OutOrStdout(), weeks, all)
			return nil
		},
	}
	totals.Flags().IntVar(&opts.week, "week", 1, "Week number (1-based, 0 for all)")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "List malformed or inverted shifts",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			wb, err := opts.workbook(cmd.Context(), env)
			if err != nil {
				return err
			}
			var out []string
			if err := wb.CheckSaturday(env.Schedule.Saturday); err != nil {
				out = append(out, err.Error())
			}
			for _, is := range wb.Validate() {
				out = append(out, is.String())
			}
			if opts.asJSON {
				if out == nil {
					out = []string{}
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			for _, line := range out {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			if len(out) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no issues")
			}
			return nil
		},
	}

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Print the sample workbook as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			wb := env.Defaults().SampleWorkbook()
			if opts.empty {
				wb = env.Defaults().NewWorkbook()
			}
			return printJSON(cmd.OutOrStdout(), wb)
		},
	}
	seed.Flags().BoolVar(&opts.empty, "empty", false, "Empty weeks instead of the sample roster")

	imp := &cobra.Command{
		Use:   "import",
		Short: "Save a workbook file into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.file == "" || opts.dbPath == "" {
				return errors.New("--file and --db are both required")
			}
			env, err := loadEnv()
			if err != nil {
				return err
			}
			wb, err := readWorkbookFile(opts.file, env)
			if err != nil {
				return err
			}
			store, err := sqlite.New(opts.dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			rev, err := store.SaveWorkbook(cmd.Context(), wb, "import "+opts.file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved revision %s (%d weeks, %d people)\n", rev.ID, rev.Weeks, len(wb.People()))
			return nil
		},
	}

	root.AddCommand(payments, totals, validate, seed, imp)
	return root
}

// loadEnv reads the same configuration as the server.
func loadEnv() (*config.Config, error) {
	return config.Load()
}

func engineFor(cfg *config.Config, wb *payroll.Workbook) *payroll.Engine {
	return payroll.NewEngine(wb.DayList(), cfg.Schedule.Saturday)
}

func (o *options) workbook(ctx context.Context, cfg *config.Config) (*payroll.Workbook, error) {
	switch {
	case o.file != "":
		return readWorkbookFile(o.file, cfg)
	case o.dbPath != "":
		store, err := sqlite.New(o.dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		if ctx == nil {
			ctx = context.Background()
		}
		return store.LoadWorkbook(ctx)
	}
	return nil, errors.New("one of --file or --db is required")
}

func readWorkbookFile(path string, cfg *config.Config) (*payroll.Workbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return factory.NewWorkbookFactory(cfg.Defaults()).Parse(data)
}

/* ---------------- output ---------------- */

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printPayments(out io.Writer, results []payroll.PaymentResult) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Person\tHours\tSolo h\tSat h\tBase\tSolo\tSaturday\tBonus\tTotal\t")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Person,
			r.Hours.Total.StringFixed(2),
			r.Hours.Solo.StringFixed(2),
			r.Hours.Saturday.StringFixed(2),
			r.Payments.Base.StringFixed(2),
			r.Payments.Solo.StringFixed(2),
			r.Payments.Saturday.StringFixed(2),
			r.Payments.Bonus.StringFixed(2),
			r.Payments.Total.StringFixed(2),
		)
	}
	tw.Flush()
}

func printTotals(out io.Writer, weeks []int, all []payroll.WeekTotals) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Week\tPeople\tHours\tSolo h\tSat h\tBase\tSolo\tSaturday\tBonus\tTotal\t")
	for i, t := range all {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			weeks[i]+1,
			t.People,
			t.Hours.Total.StringFixed(2),
			t.Hours.Solo.StringFixed(2),
			t.Hours.Saturday.StringFixed(2),
			t.Payments.Base.StringFixed(2),
			t.Payments.Solo.StringFixed(2),
			t.Payments.Saturday.StringFixed(2),
			t.Payments.Bonus.StringFixed(2),
			t.Payments.Total.StringFixed(2),
		)
	}
	tw.Flush()
}
