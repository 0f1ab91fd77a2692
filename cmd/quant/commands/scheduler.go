package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/signalengine/internal/api"
	"github.com/wonny/signalengine/internal/api/handlers"
	"github.com/wonny/signalengine/internal/scanner"
	"github.com/wonny/signalengine/internal/scheduler"
	"github.com/wonny/signalengine/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Scheduler management",
	Long: `Starts the job scheduler or runs a scheduled job once.

Subcommands:
  start   - Start the scheduler daemon
  list    - List registered jobs
  run     - Run one job now and wait for it

Example:
  go run ./cmd/quant scheduler start --serve
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run threshold_backtest`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Starts the scheduler and registers every job.

Registered jobs:
- signal_scan: every 30 minutes on weekdays (SCAN_SCHEDULE)
- threshold_backtest: Saturdays 06:00 (BACKTEST_SCHEDULE)
- signal_cleanup: hourly
- cache_cleanup: every 5 minutes, only without Redis

With --serve the API server runs in the same process and shares the scanner,
so /metrics reflects the scheduled runs.

Stop with Ctrl+C.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job now",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerServe bool
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerStartCmd.Flags().BoolVar(&schedulerServe, "serve", false, "also run the API server")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.newScanner("", "", nil)
	if err != nil {
		return fmt.Errorf("init scanner: %w", err)
	}

	jobList, err := buildJobs(a, s)
	if err != nil {
		return err
	}

	sched := scheduler.New(a.log)
	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("register job: %w", err)
		}
	}

	serverDone := make(chan error, 1)
	if schedulerServe {
		router := api.NewRouter(handlers.NewSignalHandler(a.store, s, a.log), a.metrics, a.log, a.healthChecks()...)
		server := api.New(a.cfg.Port, a.log, router)
		go func() { serverDone <- server.Run(ctx) }()
	} else {
		close(serverDone)
	}

	sched.Start()

	PrintSuccess("Scheduler started")
	fmt.Println("\nRegistered jobs:")
	printJobs(jobList)
	if schedulerServe {
		fmt.Printf("\nAPI on http://localhost:%s\n", a.cfg.Port)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	if err := <-serverDone; err != nil {
		a.log.WithError(err).Warn("API server stopped with error")
	}
	printJobStats(sched.GetJobStats())

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.newScanner("", "", nil)
	if err != nil {
		return fmt.Errorf("init scanner: %w", err)
	}

	jobList, err := buildJobs(a, s)
	if err != nil {
		return err
	}

	fmt.Println("Registered jobs:")
	printJobs(jobList)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.newScanner("", "", nil)
	if err != nil {
		return fmt.Errorf("init scanner: %w", err)
	}

	jobList, err := buildJobs(a, s)
	if err != nil {
		return err
	}

	for _, job := range jobList {
		if job.Name() != jobName {
			continue
		}

		fmt.Printf("Running job: %s\n", jobName)
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			return fmt.Errorf("run job: %w", err)
		}
		PrintSuccess(fmt.Sprintf("%s completed in %.2fs", jobName, time.Since(start).Seconds()))
		return nil
	}

	return fmt.Errorf("job %s not found", jobName)
}

// buildJobs creates every scheduled job
func buildJobs(a *app, s *scanner.Scanner) ([]scheduler.Job, error) {
	engine, err := a.newBacktestEngine("", "")
	if err != nil {
		return nil, fmt.Errorf("init backtest engine: %w", err)
	}

	bt := a.cfg.Backtest
	jobList := []scheduler.Job{
		jobs.NewScanJob(s, a.cfg.Scan.Schedule, a.log),
		jobs.NewBacktestJob(engine, a.marketData, bt.Symbols, bt.HistoryDays, bt.ReferenceThreshold, bt.Schedule, a.log).
			WithMetrics(a.metrics),
		jobs.NewSignalCleanupJob(a.store, a.log),
	}
	if a.memCache != nil {
		jobList = append(jobList, jobs.NewCacheCleanupJob(a.memCache, a.log))
	}
	return jobList, nil
}

func printJobs(jobList []scheduler.Job) {
	widths := []int{20, 20}
	PrintTableHeader([]string{"Job", "Schedule"}, widths)
	for _, job := range jobList {
		PrintTableRow([]string{job.Name(), job.Schedule()}, widths)
	}
}

func printJobStats(stats map[string]scheduler.JobStats) {
	for jobName, stat := range stats {
		if stat.TotalRuns == 0 {
			continue
		}
		fmt.Printf("📊 %s\n", jobName)
		PrintKeyValue("Total Runs", fmt.Sprintf("%d", stat.TotalRuns), 12)
		PrintKeyValue("Success", fmt.Sprintf("%d (%.1f%%)", stat.SuccessCount, stat.SuccessRate*100), 12)
		PrintKeyValue("Failures", fmt.Sprintf("%d", stat.FailureCount), 12)
		if stat.LastRun != nil {
			PrintKeyValue("Last Run", stat.LastRun.Format("2006-01-02 15:04:05"), 12)
		}
	}
}
