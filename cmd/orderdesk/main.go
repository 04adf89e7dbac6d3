// Command orderdesk serves the order back-office API and runs its
// maintenance tasks:
//
//	orderdesk migrate        # run pending migrations
//	orderdesk seed           # admin user and demo data
//	orderdesk serve          # HTTP server, queue workers, scheduler
//	orderdesk route:list
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	// migrations and seeders register themselves from init()
	_ "github.com/shashiranjanraj/orderdesk/database/migrations"
	_ "github.com/shashiranjanraj/orderdesk/database/seeders"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "orderdesk",
	Short:         "Order management back-office",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	// Workers
	rootCmd.AddCommand(queueWorkCmd)

	// Orders
	rootCmd.AddCommand(ordersStatsCmd)
	rootCmd.AddCommand(ordersExportCmd)
	rootCmd.AddCommand(userCreateCmd)
}
