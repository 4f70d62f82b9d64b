package cmd

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/hitchain/packages/scenario"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate scenario files without running them",
	Long: `Parse and validate .chain.yaml scenario files without sending any
requests.

Examples:
  hitchain validate login.chain.yaml
  hitchain validate ./scenarios/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := scenario.CollectFiles(args)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	if len(files) == 0 {
		return withExitCode(ExitUsageError, errors.New("no .chain.yaml or .chain.yml files found"))
	}

	hasErrors := false
	for _, file := range files {
		if _, err := loadScenario(file); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		}
	}

	if hasErrors {
		return withExitCode(ExitParseError, errors.New("validation failed"))
	}

	return nil
}

// loadScenario parses and validates one file.
func loadScenario(path string) (*scenario.Scenario, error) {
	sc, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}
