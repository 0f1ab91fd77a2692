package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wonny/signalengine/internal/scoring"
)

// profilesCmd lists the scoring presets
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Scoring profiles",
	Long: `Lists the built-in scoring presets, prints one as YAML, or validates a
profile file before it is used with --profile-file.

Example:
  go run ./cmd/quant profiles
  go run ./cmd/quant profiles show strict > profiles/custom.yaml
  go run ./cmd/quant profiles validate profiles/custom.yaml`,
	RunE: listProfiles,
}

var (
	profilesShowCmd = &cobra.Command{
		Use:   "show [name]",
		Short: "Print a preset as YAML",
		Args:  cobra.ExactArgs(1),
		RunE:  showProfile,
	}

	profilesValidateCmd = &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a YAML profile",
		Args:  cobra.ExactArgs(1),
		RunE:  validateProfile,
	}
)

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.AddCommand(profilesShowCmd)
	profilesCmd.AddCommand(profilesValidateCmd)
}

func listProfiles(cmd *cobra.Command, args []string) error {
	widths := []int{14, 10, 14, 12, 14}
	PrintTableHeader([]string{"Profile", "Min Score", "Min Confidence", "Sentiment", "Hash"}, widths)

	for _, name := range scoring.PresetNames() {
		p := scoring.MustPreset(name)
		hash, err := p.Hash()
		if err != nil {
			return err
		}
		PrintTableRow([]string{
			name,
			fmt.Sprintf("%.0f", p.MinScore),
			fmt.Sprintf("%.0f", p.MinConfidence),
			fmt.Sprintf("%t", p.Sentiment.Enabled),
			hash[:12],
		}, widths)
	}

	return nil
}

func showProfile(cmd *cobra.Command, args []string) error {
	p, err := scoring.Preset(args[0])
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(p)
}

func validateProfile(cmd *cobra.Command, args []string) error {
	p, err := scoring.LoadProfile(args[0])
	if err != nil {
		PrintError(err.Error())
		return err
	}

	hash, err := p.Hash()
	if err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("%s is valid (profile %q, hash %s)", args[0], p.Name, hash[:12]))
	return nil
}
