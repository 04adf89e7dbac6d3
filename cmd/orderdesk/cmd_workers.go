package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/orderdesk/config"
	"github.com/shashiranjanraj/orderdesk/internal/server"
	"github.com/shashiranjanraj/orderdesk/pkg/database"
	"github.com/shashiranjanraj/orderdesk/pkg/queue"
)

var queueWorkersFlag int

// orderdesk queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Process queued jobs (needs QUEUE_DRIVER=redis to share jobs with serve)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := server.Boot(cmd.Context()); err != nil {
			return err
		}
		defer database.Close() //nolint:errcheck
		if config.QueueDriver() != "redis" {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning: memory queue driver; only jobs dispatched by this process are seen")
		}

		workers := queueWorkersFlag
		if workers < 1 {
			workers = 1
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		queue.StartWorkers(cmd.Context(), workers).Wait()
		fmt.Fprintln(cmd.OutOrStdout(), "Queue worker stopped.")
		return nil
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 2, "number of concurrent workers")
}
