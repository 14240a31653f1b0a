package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/aegisops/aegisd/pkg/logging"
	"github.com/aegisops/aegisd/services/config"
	"github.com/aegisops/aegisd/services/gateway"
	"github.com/aegisops/aegisd/services/lifecycle"
)

var rootCmd = &cobra.Command{
	Use:   "aegisd",
	Short: "Autonomous operations daemon",
	Long: `aegisd schedules and executes operational tasks under a bounded-autonomy
governance layer, recording every privileged action to a tamper-evident
audit ledger and self-healing around failures in its own subsystems.`,
}

func main() {
	rootCmd.AddCommand(serveCmd, auditCmd, jobCmd, statusCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func parseLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func bootManager(ctx context.Context) (*lifecycle.Manager, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(logging.Config{Level: parseLevel(cfg.LogLevel), LogDir: cfg.LogDir, Service: "aegisd"})
	mgr := lifecycle.New(cfg, logger)

	if cfg.GatewaySecret != "" {
		gwCfg := gateway.Config{
			Host:         cfg.GatewayHost,
			Port:         cfg.GatewayPort,
			Secret:       cfg.GatewaySecret,
			OTLPEndpoint: cfg.OTLPEndpoint,
			OTLPInsecure: cfg.OTLPInsecure,
			TraceSampler: cfg.TraceSampler,
		}
		gw, err := gateway.New(ctx, gwCfg, mgr, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("constructing gateway: %w", err)
		}
		mgr.SetGateway(gw.Hooks())
	}

	if err := mgr.Boot(ctx); err != nil {
		return nil, nil, fmt.Errorf("boot: %w", err)
	}
	return mgr, logger, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daemon until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		mgr, logger, err := bootManager(ctx)
		if err != nil {
			return err
		}
		defer mgr.Shutdown()

		logger.Info("aegisd: running")
		<-ctx.Done()
		logger.Info("aegisd: shutting down")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Boot the daemon briefly and report subsystem health",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		mgr, _, err := bootManager(ctx)
		if err != nil {
			return err
		}
		defer mgr.Shutdown()

		report := mgr.Healing.LastReport()
		color.Green("queue depth: %d", mgr.Scheduler.QueueDepth())
		if len(report.Unhealthy) == 0 {
			color.Green("healing status: healthy")
		} else {
			color.Red("healing status: unhealthy probes=%v", report.Unhealthy)
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Breaker", "State", "Failures", "Opened At"})
		for _, b := range mgr.Breakers.GetState() {
			openedAt := ""
			if !b.OpenedAt.IsZero() {
				openedAt = b.OpenedAt.Format("2006-01-02T15:04:05Z07:00")
			}
			tw.AppendRow(table.Row{b.OperationName, b.State, b.FailureCount, openedAt})
		}
		tw.Render()
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit ledger",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the audit ledger's hash chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		mgr, _, err := bootManager(ctx)
		if err != nil {
			return err
		}
		defer mgr.Shutdown()

		result, err := mgr.Audit.VerifyChain(ctx)
		if err != nil {
			color.Red("chain verification failed: %v", err)
			return err
		}
		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"Valid", "Total Entries", "Broken At"})
		brokenAt := ""
		if !result.Valid {
			brokenAt = fmt.Sprintf("%d", result.BrokenAt)
		}
		tw.AppendRow(table.Row{result.Valid, result.TotalEntries, brokenAt})
		tw.Render()

		if !result.Valid {
			color.Red("audit chain broken at sequence %d", result.BrokenAt)
			return fmt.Errorf("audit chain invalid")
		}
		color.Green("audit chain verified (%d entries)", result.TotalEntries)
		return nil
	},
}

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Inspect and control scheduled jobs",
}

var jobListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		mgr, _, err := bootManager(ctx)
		if err != nil {
			return err
		}
		defer mgr.Shutdown()

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"ID", "Name", "Enabled", "Next Run"})
		for _, job := range mgr.Scheduler.ListJobs() {
			tw.AppendRow(table.Row{job.ID, job.Name, job.Enabled, job.NextRun.Format("2006-01-02T15:04:05Z07:00")})
		}
		tw.Render()
		return nil
	},
}

var jobToggleCmd = &cobra.Command{
	Use:   "toggle [job-id] [true|false]",
	Short: "Enable or disable a scheduled job",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		mgr, _, err := bootManager(ctx)
		if err != nil {
			return err
		}
		defer mgr.Shutdown()

		enabled := args[1] == "true"
		if !mgr.Scheduler.ToggleJob(args[0], enabled) {
			return fmt.Errorf("unknown job %q", args[0])
		}
		color.Green("job %s enabled=%v", args[0], enabled)
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditVerifyCmd)
	jobCmd.AddCommand(jobListCmd, jobToggleCmd)
}
