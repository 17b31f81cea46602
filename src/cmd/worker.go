package cmd

import (
	"github.com/wochenmarkt/ingestor/src/utils/logger"
	"github.com/wochenmarkt/ingestor/src/worker"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(workerCmd)
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Execute deferred readiness checks stored in redis",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := worker.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		select {
		case <-controller.CtxRunning.Done():
		case <-applicationCtx.Done():
		}

		controller.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished worker command")
		applicationCtxCancel()
		return
	},
}
