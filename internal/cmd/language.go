package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-studyroom/internal/config"
	"github.com/wethinkt/go-studyroom/internal/i18n"
)

var languageCmd = &cobra.Command{
	Use:   "language [lang]",
	Short: "Get or set the display language",
	Long: `Get or set the display language. Use a BCP 47 tag (e.g., en, ko).

Dates, clock times and interface text follow the language. STUDYROOM_LANG
overrides the stored setting for a single run.

Examples:
  studyroom language      # show current language
  studyroom language ko   # switch to Korean`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "Current language: %s\n", i18n.ResolveLocale(cfg.Language))
			return nil
		}

		stored, err := config.Load()
		if err != nil {
			return err
		}
		stored.Language = args[0]
		if err := config.Save(stored); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Language set to: %s\n", args[0])
		return nil
	},
}
