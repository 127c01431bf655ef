package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/claimassess/internal/logging"
	"github.com/sprite-ai/claimassess/internal/tui"
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Open the interactive claim wizard",
	Long: `Open the terminal claim wizard. Photos given with --photo are uploaded
up front and the wizard opens on the photo step.

Examples:
  claimassess wizard
  claimassess wizard --claim-number CLM-1042 --photo front.jpg --photo side.png`,
	Args: cobra.NoArgs,
	RunE: runWizard,
}

func init() {
	addWizardFlags(wizardCmd)
}

func addWizardFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("claim-number", "n", "", "pre-fill the claim number")
	cmd.Flags().StringArrayP("photo", "p", nil, "photo to upload (repeatable)")
}

func runWizard(cmd *cobra.Command, args []string) error {
	claimNumber, _ := cmd.Flags().GetString("claim-number")
	photos, _ := cmd.Flags().GetStringArray("photo")

	// The terminal belongs to the wizard; log to a file or nowhere.
	tlog, err := logging.ForTerminal(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer func() { _ = tlog.Sync() }()

	return tui.Run(tui.Options{
		Wizard:      cfg.WizardOptions(),
		Logger:      tlog,
		ClaimNumber: claimNumber,
		Photos:      photos,
	})
}
