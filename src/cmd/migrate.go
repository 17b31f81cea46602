package cmd

import (
	"github.com/wochenmarkt/ingestor/src/utils/logger"
	"github.com/wochenmarkt/ingestor/src/utils/model"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer applicationCtxCancel()
		return model.Migrate(applicationCtx, conf)
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished migrate command")
		return
	},
}
