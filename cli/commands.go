package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wawengkz/INVENT/internal/models"
	"github.com/wawengkz/INVENT/server"
)

func (e *env) validateCmd() *cobra.Command {
	var (
		dt  string
		bay string
		fix bool
	)
	c := &cobra.Command{
		Use:   "validate",
		Short: "Check a layout for overlaps, duplicate numbers and crowded stations",
		RunE: func(c *cobra.Command, _ []string) error {
			t, err := models.ParseDeviceType(dt)
			if err != nil {
				return err
			}
			bay := models.NormalizeBayName(bay)
			return e.withServices(func(s *server.Services) error {
				rep, err := s.Engine.ValidateLayout(c.Context(), t, bay)
				if err != nil {
					return err
				}
				if !fix || rep.Valid {
					return printJSON(c.OutOrStdout(), rep)
				}
				res, err := s.Engine.AutoFixLayout(c.Context(), t, bay)
				if err != nil {
					return err
				}
				return printJSON(c.OutOrStdout(), res)
			})
		},
	}
	c.Flags().StringVar(&dt, "device-type", "", "mouse|keyboard|headset")
	c.Flags().StringVar(&bay, "bay", "", "limit to one bay")
	c.Flags().BoolVar(&fix, "fix", false, "apply automatic fixes when issues are found")
	_ = c.MarkFlagRequired("device-type")
	return c
}

func (e *env) baysCmd() *cobra.Command {
	c := &cobra.Command{Use: "bays", Short: "Bay maintenance"}
	c.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Create bay records for station groups and number unnumbered stations",
		RunE: func(c *cobra.Command, _ []string) error {
			return e.withServices(func(s *server.Services) error {
				rep, err := s.Engine.SyncBays(c.Context())
				if err != nil {
					return err
				}
				return printJSON(c.OutOrStdout(), rep)
			})
		},
	})
	return c
}

func (e *env) logsCmd() *cobra.Command {
	var days int
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete audit log entries older than the retention period",
		RunE: func(c *cobra.Command, _ []string) error {
			if days < 0 {
				return fmt.Errorf("--days must be positive")
			}
			return e.withServices(func(s *server.Services) error {
				n, kept, err := s.Audits.Cleanup(c.Context(), days)
				if err != nil {
					return err
				}
				return printJSON(c.OutOrStdout(), map[string]any{"deletedCount": n, "daysKept": kept})
			})
		},
	}
	cleanup.Flags().IntVar(&days, "days", 0, "days to keep (default logs_retention.days)")

	c := &cobra.Command{Use: "logs", Short: "Audit log maintenance"}
	c.AddCommand(cleanup)
	return c
}

func (e *env) departmentsCmd() *cobra.Command {
	c := &cobra.Command{Use: "departments", Short: "Department maintenance"}
	c.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default department set in an empty database",
		RunE: func(c *cobra.Command, _ []string) error {
			return e.withServices(func(s *server.Services) error {
				deps, err := s.Departments.InitDefaults(c.Context())
				if err != nil {
					return err
				}
				return printJSON(c.OutOrStdout(), deps)
			})
		},
	})
	return c
}
