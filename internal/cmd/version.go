package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-studyroom/internal/version"
)

var (
	versionJSON bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.GetInfo("studyroom")
		if versionJSON {
			_ = json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.String("studyroom"))
	},
}
