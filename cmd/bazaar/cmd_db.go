package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/bazaar/config"
	"github.com/shashiranjanraj/bazaar/database/seeders"
	"github.com/shashiranjanraj/bazaar/pkg/database"
	"github.com/shashiranjanraj/bazaar/pkg/migration"
)

// bootDB loads config and opens the database connection.
func bootDB() error {
	if err := config.Load(); err != nil {
		return err
	}
	return database.Connect()
}

// bazaar migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close() //nolint:errcheck
		fmt.Println("Running migrations…")
		return migration.New(database.DB).Run()
	},
}

// bazaar migrate:rollback
var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close() //nolint:errcheck
		fmt.Println("Rolling back last batch…")
		return migration.New(database.DB).Rollback()
	},
}

// bazaar migrate:status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close() //nolint:errcheck

		statuses, err := migration.New(database.DB).Status()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "MIGRATION\tRAN\tBATCH")
		for _, s := range statuses {
			ran, batch := "No", "-"
			if s.Ran {
				ran, batch = "Yes", fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, ran, batch)
		}
		return w.Flush()
	},
}

// bazaar seed
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close() //nolint:errcheck
		fmt.Println("Running seeders…")
		return seeders.RunAll(database.DB, os.Stdout)
	},
}
