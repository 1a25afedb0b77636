package app

import (
	"github.com/spf13/cobra"

	"github.com/fleetops/rostersync/pkg/drivers"
	"github.com/fleetops/rostersync/pkg/report"
	"github.com/fleetops/rostersync/pkg/sync"
)

// NewFullCommand creates the full address reconciliation command.
func (a *App) NewFullCommand() *cobra.Command {
	var (
		csvPath       string
		marker        string
		confirmDelete bool
		applyChanges  bool
	)
	cfg := sync.PassConfig{
		OutDir:         a.config.OutDir,
		StatePath:      a.config.StatePath,
		WarehousesPath: a.config.WarehousesPath,
	}
	opts := sync.Options{
		GeofenceRadiusMeters: a.config.RadiusMeters,
		RetentionDays:        a.config.RetentionDays,
	}

	cmd := &cobra.Command{
		Use:   "full",
		Short: "Reconcile a complete Encompass export against Samsara addresses",
		Long: `Full runs a complete reconciliation pass: every row of the export is
upserted, remote records no longer present in the export are swept into
quarantine, and quarantined records past retention are hard-deleted when
--confirm-delete is set.

Without --apply the pass is a dry run that only writes report artifacts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.Client()
			if err != nil {
				return err
			}
			cfg.EncompassCSV = csvPath
			cfg.Apply = applyChanges
			opts.ConfirmDelete = confirmDelete
			opts.Marker = sync.MarkerPolicy(marker)
			cfg.Options = opts
			return sync.RunFull(cmd.Context(), client, cfg)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Encompass customer export CSV (required)")
	cmd.Flags().StringVar(&cfg.WarehousesPath, "warehouses", cfg.WarehousesPath, "warehouse registry file (CSV or YAML)")
	cmd.Flags().StringVar(&cfg.OutDir, "out-dir", cfg.OutDir, "directory for report artifacts and state")
	cmd.Flags().StringVar(&cfg.StatePath, "state", cfg.StatePath, "state file path (default <out-dir>/state.json)")
	cmd.Flags().IntVar(&opts.GeofenceRadiusMeters, "radius-m", opts.GeofenceRadiusMeters, "geofence radius for created addresses, meters")
	cmd.Flags().IntVar(&opts.RetentionDays, "retention-days", opts.RetentionDays, "quarantine age before hard delete, days")
	cmd.Flags().StringVar(&marker, "marker", string(sync.MarkerTimestamped), "quarantine marker format: timestamped or legacy_flag")
	cmd.Flags().BoolVar(&confirmDelete, "confirm-delete", false, "allow hard deletes of quarantined records past retention")
	cmd.Flags().BoolVar(&applyChanges, "apply", false, "issue remote writes instead of a dry run")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

// NewDailyCommand creates the incremental address reconciliation command.
func (a *App) NewDailyCommand() *cobra.Command {
	var (
		csvPath       string
		marker        string
		confirmDelete bool
		applyChanges  bool
	)
	cfg := sync.PassConfig{
		OutDir:         a.config.OutDir,
		StatePath:      a.config.StatePath,
		WarehousesPath: a.config.WarehousesPath,
	}
	opts := sync.Options{
		GeofenceRadiusMeters: a.config.RadiusMeters,
		RetentionDays:        a.config.RetentionDays,
	}

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Reconcile an incremental Encompass export against Samsara addresses",
		Long: `Daily upserts the rows of a delta export without sweeping orphans:
records absent from a delta file are simply unchanged, not deleted.
Rows flagged for deletion still enter quarantine, and quarantined
records past retention are hard-deleted when --confirm-delete is set.

Without --apply the pass is a dry run that only writes report artifacts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.Client()
			if err != nil {
				return err
			}
			cfg.EncompassCSV = csvPath
			cfg.Apply = applyChanges
			opts.ConfirmDelete = confirmDelete
			opts.Marker = sync.MarkerPolicy(marker)
			cfg.Options = opts
			return sync.RunDaily(cmd.Context(), client, cfg)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Encompass delta export CSV (required)")
	cmd.Flags().StringVar(&cfg.WarehousesPath, "warehouses", cfg.WarehousesPath, "warehouse registry file (CSV or YAML)")
	cmd.Flags().StringVar(&cfg.OutDir, "out-dir", cfg.OutDir, "directory for report artifacts and state")
	cmd.Flags().StringVar(&cfg.StatePath, "state", cfg.StatePath, "state file path (default <out-dir>/state.json)")
	cmd.Flags().IntVar(&opts.GeofenceRadiusMeters, "radius-m", opts.GeofenceRadiusMeters, "geofence radius for created addresses, meters")
	cmd.Flags().IntVar(&opts.RetentionDays, "retention-days", opts.RetentionDays, "quarantine age before hard delete, days")
	cmd.Flags().StringVar(&marker, "marker", string(sync.MarkerTimestamped), "quarantine marker format: timestamped or legacy_flag")
	cmd.Flags().BoolVar(&confirmDelete, "confirm-delete", false, "allow hard deletes of quarantined records past retention")
	cmd.Flags().BoolVar(&applyChanges, "apply", false, "issue remote writes instead of a dry run")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

// NewDriversCommand creates the payroll-to-driver reconciliation command.
func (a *App) NewDriversCommand() *cobra.Command {
	cfg := drivers.Config{
		OutDir: a.config.OutDir,
	}

	cmd := &cobra.Command{
		Use:   "drivers",
		Short: "Reconcile a Paycom payroll export against Samsara drivers",
		Long: `Drivers creates, updates, deactivates, and reactivates Samsara driver
records from a Paycom payroll export. The optional side-channel files
supply operator-maintained timezone, peer group, and tag assignments.

Without --apply the pass is a dry run that only writes report artifacts.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.Client()
			if err != nil {
				return err
			}
			return drivers.Run(cmd.Context(), client, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.PayrollCSV, "payroll", "", "Paycom payroll export CSV (required)")
	cmd.Flags().StringVar(&cfg.TimezoneCSV, "timezones", "", "driver timezone side-channel CSV")
	cmd.Flags().StringVar(&cfg.PeerGroupsCSV, "peer-groups", "", "driver peer group side-channel CSV")
	cmd.Flags().StringVar(&cfg.DriverTagsCSV, "driver-tags", "", "driver tag side-channel CSV")
	cmd.Flags().StringVar(&cfg.OutDir, "out-dir", cfg.OutDir, "directory for report artifacts")
	cmd.Flags().BoolVar(&cfg.Apply, "apply", false, "issue remote writes instead of a dry run")
	_ = cmd.MarkFlagRequired("payroll")

	return cmd
}

// NewPurgeCommand creates the direct address deletion command.
func (a *App) NewPurgeCommand() *cobra.Command {
	var (
		idsCSV       string
		applyChanges bool
	)

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete addresses listed in an ID file, bypassing quarantine",
		Long: `Purge hard-deletes the addresses named in a CSV ID column without the
quarantine flow. It is the recovery tool for records that the safe-delete
state machine cannot reach, and it still honors dry-run by default.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.Client()
			if err != nil {
				return err
			}
			actions, err := sync.RunPurge(cmd.Context(), client, idsCSV, applyChanges)
			if err != nil {
				return err
			}
			for kind, n := range report.Summarize(actions) {
				cmd.Printf("%s: %d\n", kind, n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&idsCSV, "ids", "", "CSV with an ID column naming the addresses to delete (required)")
	cmd.Flags().BoolVar(&applyChanges, "apply", false, "issue remote deletes instead of a dry run")
	_ = cmd.MarkFlagRequired("ids")

	return cmd
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("rostersync %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit: %s\n", a.commit)
				cmd.Printf("  built:  %s\n", a.date)
			}
		},
	}
}
