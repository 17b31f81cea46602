package cmd

import (
	"fmt"

	"github.com/wochenmarkt/ingestor/src/utils/build_info"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer applicationCtxCancel()
		fmt.Println(build_info.Version)
		return
	},
}
