package main

import (
	"github.com/spf13/cobra"
	"github.com/tanpawarit/healthcare-assistant/agent/store"
	configx "github.com/tanpawarit/healthcare-assistant/pkg/config"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbCfg, err := configx.New[store.Config]("DATABASE")
			if err != nil {
				return err
			}
			db, err := store.Open(*dbCfg)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.Migrate(cmd.Context())
		},
	}
}
