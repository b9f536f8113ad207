// Package cli содержит команды invent: сервер и обслуживающие операции над той же БД.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/wawengkz/INVENT/config"
	"github.com/wawengkz/INVENT/internal/logs"
	"github.com/wawengkz/INVENT/server"
)

// env holds state shared by subcommands after PersistentPreRunE.
type env struct {
	configFile string
	cfg        *config.Config
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "invent",
		Short:         "Inventory audits and station/bay floor map service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			if e.configFile != "" {
				if _, err := os.Stat(e.configFile); err != nil {
					return fmt.Errorf("config file %s: %w", e.configFile, err)
				}
				if err := os.Setenv("CONFIG_FILE", e.configFile); err != nil {
					return err
				}
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			logs.Init(logs.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, File: cfg.Logging.File})
			return nil
		},
		// без подкоманды: сервер
		RunE: func(c *cobra.Command, _ []string) error { return e.serve() },
	}
	root.PersistentFlags().StringVarP(&e.configFile, "config", "c", "", "Path to configuration (overrides CONFIG_FILE)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE:  func(c *cobra.Command, _ []string) error { return e.serve() },
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE: func(c *cobra.Command, _ []string) error {
				d, err := e.open()
				if err != nil {
					return err
				}
				closeDB(d)
				fmt.Fprintln(c.OutOrStdout(), "schema is up to date")
				return nil
			},
		},
		e.validateCmd(),
		e.baysCmd(),
		e.logsCmd(),
		e.departmentsCmd(),
	)
	return root
}

func (e *env) serve() error {
	app := &server.App{}
	if err := app.Initialize(e.cfg); err != nil {
		return err
	}
	return app.Run()
}

// open подключает БД с миграцией; закрывает вызывающий.
func (e *env) open() (*gorm.DB, error) {
	return server.OpenDB(e.cfg)
}

// withServices открывает БД, собирает сервисы и закрывает БД после fn.
func (e *env) withServices(fn func(s *server.Services) error) error {
	d, err := e.open()
	if err != nil {
		return err
	}
	defer closeDB(d)
	return fn(server.NewServices(e.cfg, d))
}

func closeDB(d *gorm.DB) {
	if sqlDB, err := d.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
