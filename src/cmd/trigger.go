package cmd

import (
	"github.com/wochenmarkt/ingestor/src/trigger"
	"github.com/wochenmarkt/ingestor/src/utils/logger"

	"github.com/spf13/cobra"
)

var triggerOnce bool

func init() {
	triggerCmd.Flags().BoolVar(&triggerOnce, "once", false, "trigger a single sweep and exit")
	RootCmd.AddCommand(triggerCmd)
}

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Periodically call the sweep endpoint",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		t := trigger.NewTrigger(conf)

		if triggerOnce {
			err = t.Sweep()
			applicationCtxCancel()
			return
		}

		err = t.Start()
		if err != nil {
			return
		}

		select {
		case <-t.CtxRunning.Done():
		case <-applicationCtx.Done():
		}

		t.StopWait()

		return
	},
	PostRunE: func(cmd *cobra.Command, args []string) (err error) {
		log := logger.NewSublogger("root-cmd")
		log.Debug("Finished trigger command")
		applicationCtxCancel()
		return
	},
}
