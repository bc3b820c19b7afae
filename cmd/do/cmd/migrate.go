package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theoryboard/theoryboard/internal/db"
)

func MigrateCmd() *cobra.Command {
	var flags storeFlags

	cmd := &cobra.Command{
		Use:       "migrate up|down",
		Short:     "Apply or roll back SQL document store migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, flags, args[0])
		},
	}
	bindStoreFlags(cmd, &flags)

	return cmd
}

func runMigrate(cmd *cobra.Command, flags storeFlags, direction string) error {
	cfg := flags.config()
	database, err := db.Init(cmd.Context(), cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	if direction == "down" {
		err = db.MigrateDown(database.DB, cfg.DBDriver)
	} else {
		err = db.RunMigrations(database.DB, cfg.DBDriver)
	}
	if err != nil {
		return err
	}

	fmt.Printf("migrate %s: ok (%s)\n", direction, cfg.DBDriver)
	return nil
}
