package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/orderdesk/app/jobs"
	"github.com/shashiranjanraj/orderdesk/app/resources"
	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/app/widgets"
	"github.com/shashiranjanraj/orderdesk/internal/server"
	"github.com/shashiranjanraj/orderdesk/pkg/database"
	"github.com/shashiranjanraj/orderdesk/pkg/table"
)

// orderdesk orders:stats
var ordersStatsCmd = &cobra.Command{
	Use:   "orders:stats",
	Short: "Print the stats overview",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := server.Boot(cmd.Context()); err != nil {
			return err
		}
		defer database.Close() //nolint:errcheck

		st, err := services.NewStatsService().Orders(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		for _, s := range widgets.StatsOverview(st) {
			fmt.Fprintf(w, "%s\t%s\n", s.Label, s.Value)
		}
		return w.Flush()
	},
}

var (
	exportStatus []string
	exportSearch string
	exportOut    string
)

// orderdesk orders:export
var ordersExportCmd = &cobra.Command{
	Use:   "orders:export",
	Short: "Export orders as CSV to a file, stdout (-o -) or the storage disk",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := server.Boot(cmd.Context()); err != nil {
			return err
		}
		defer database.Close() //nolint:errcheck

		p := resources.OrderTable().Normalize(table.Params{Filters: exportStatus, Search: exportSearch})
		switch exportOut {
		case "":
			job := jobs.NewExportOrdersJob(p)
			if err := job.Handle(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), job.Path)
			return nil
		case "-":
			_, err := jobs.WriteOrdersCSV(cmd.Context(), cmd.OutOrStdout(), services.NewOrderService(), p)
			return err
		default:
			f, err := os.Create(exportOut)
			if err != nil {
				return err
			}
			n, err := jobs.WriteOrdersCSV(cmd.Context(), f, services.NewOrderService(), p)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d orders written to %s\n", n, exportOut)
			return nil
		}
	},
}

var userInput services.UserInput

// orderdesk user:create
var userCreateCmd = &cobra.Command{
	Use:   "user:create",
	Short: "Create a back-office user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := server.Boot(cmd.Context()); err != nil {
			return err
		}
		defer database.Close() //nolint:errcheck

		u, err := services.NewAuthService().CreateUser(cmd.Context(), userInput)
		if errs, ok := services.AsValidation(err); ok {
			for field, msg := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, msg)
			}
			return fmt.Errorf("user not created")
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User #%d (%s, %s) created.\n", u.ID, u.Email, u.Role)
		return nil
	},
}

func init() {
	ordersExportCmd.Flags().StringSliceVar(&exportStatus, "status", nil, "status filters (pending, rejected, finished)")
	ordersExportCmd.Flags().StringVar(&exportSearch, "search", "", "search unique code or status")
	ordersExportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "file path, - for stdout, empty for the storage disk")

	userCreateCmd.Flags().StringVar(&userInput.Name, "name", "", "display name")
	userCreateCmd.Flags().StringVar(&userInput.Email, "email", "", "login email")
	userCreateCmd.Flags().StringVar(&userInput.Password, "password", "", "password (min 8 characters)")
	userCreateCmd.Flags().StringVar(&userInput.Role, "role", "staff", "admin or staff")
}
