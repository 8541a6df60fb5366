package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"dentalportal/internal/booking"
	"dentalportal/internal/calendar"
	"dentalportal/internal/config"
	"dentalportal/internal/database"
	"dentalportal/internal/export"
	"dentalportal/internal/models"
	"dentalportal/internal/slots"

	"github.com/spf13/cobra"
)

func slotsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "Print bookable dates and times for the clinic calendar",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := setup(*configPath)
			if err != nil {
				return err
			}
			clinic, err := config.LoadClinic(cfg.Clinic.Path)
			if err != nil {
				return fmt.Errorf("load clinic config: %w", err)
			}
			policy, err := clinic.Policy()
			if err != nil {
				return err
			}

			dates, err := slots.GenerateAvailableDates(policy, time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Dates:")
			for _, d := range dates {
				fmt.Fprintf(out, "  %s %s\n", d.Format(calendar.DateLayout), d.Weekday())
			}
			times := slots.GenerateTimeSlots(policy)
			labels := make([]string, len(times))
			for i, t := range times {
				labels[i] = t.String()
			}
			fmt.Fprintf(out, "Times: %s\n", strings.Join(labels, " "))
			return nil
		},
	}
}

func exportCmd(configPath *string) *cobra.Command {
	var (
		out    string
		tables bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export bookings from the database to an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			db, err := database.NewDB(cfg.Database.Path, &logger)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			catalog := booking.DefaultCatalog()
			if clinic, err := config.LoadClinic(cfg.Clinic.Path); err == nil {
				catalog = clinic.Catalog()
				if policy, err := clinic.Policy(); err == nil {
					db.SetLocation(policy.Loc())
				}
			} else {
				logger.Warn().Err(err).Msg("clinic config unavailable, using default catalog")
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			if tables {
				err = export.WriteTables(cmd.Context(), db, f)
			} else {
				var all []models.Booking
				all, err = db.ListAll(cmd.Context())
				if err == nil {
					err = export.WriteBookings(f, all, catalog)
				}
			}
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			logger.Info().Str("file", out).Msg("export written")
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "bookings.xlsx", "output file")
	cmd.Flags().BoolVar(&tables, "tables", false, "dump every audit table instead of the bookings sheet")
	return cmd
}

func backupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write a database backup now and prune expired ones",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			db, err := database.NewDB(cfg.Database.Path, &logger)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			svc := database.NewBackupService(db, cfg.Backup, &logger)
			path, err := svc.PerformBackup(cmd.Context())
			if err != nil {
				return err
			}
			removed := svc.CleanupOldBackups()
			fmt.Fprintf(cmd.OutOrStdout(), "backup written to %s, %d expired removed\n", path, removed)
			return nil
		},
	}
}
