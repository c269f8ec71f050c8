package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avaldes/gainers/internal/pipeline"
	"github.com/avaldes/gainers/internal/scheduler"
)

// scheduleCmd runs the pipeline repeatedly on a cron schedule.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule",
	Long: `Starts a scheduler that runs the full pipeline on the configured cron
expression (SCHEDULE_SPEC, default weekdays at 18:00). Each run writes its
artifacts into a fresh timestamped subdirectory of the output directory.

Example:
  go run ./cmd/gainers schedule
  SCHEDULE_SPEC="0 9 * * *" go run ./cmd/gainers schedule`,
	RunE: runSchedule,
}

var scheduleImmediate bool

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().BoolVar(&scheduleImmediate, "now", false, "also trigger one run immediately")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(cfg, log)
	sched := scheduler.New(log)
	job := scheduler.NewPipelineJob(runner, cfg, log)
	if err := sched.AddJob(job); err != nil {
		return err
	}

	sched.Start()
	defer sched.Stop()

	if scheduleImmediate {
		if err := sched.RunJob(job.Name()); err != nil {
			return err
		}
	}

	fmt.Printf("Scheduler running (%s), press Ctrl+C to stop\n", cfg.Schedule.Spec)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down")
	return nil
}
