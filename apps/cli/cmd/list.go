package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/abdul-hamid-achik/hitchain/packages/scenario"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List the steps of scenario files",
	Long: `List the scenarios and steps defined in .chain.yaml or .chain.yml files.

Examples:
  hitchain list login.chain.yaml
  hitchain list ./scenarios/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := scenario.CollectFiles(args)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	if len(files) == 0 {
		return withExitCode(ExitUsageError, errors.New("no .chain.yaml or .chain.yml files found"))
	}

	for _, file := range files {
		sc, err := scenario.Load(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s (%s):\n", sc.Name, file)
		for _, step := range sc.Steps {
			if step == nil {
				continue
			}
			line := fmt.Sprintf("%s %s", step.StepMethod(), step.Path)
			if step.Name != "" {
				line = fmt.Sprintf("%s: %s", step.Name, line)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", line)
			if step.Save != nil {
				for _, key := range sortedSaveKeys(step.Save) {
					fmt.Fprintf(cmd.OutOrStdout(), "    saves: %s\n", key)
				}
			}
		}
	}

	return nil
}

func sortedSaveKeys(save *scenario.Save) []string {
	var keys []string
	for k := range save.Fields {
		keys = append(keys, k)
	}
	for k := range save.Headers {
		keys = append(keys, k)
	}
	if save.Cookie != "" {
		keys = append(keys, "cookie")
	}
	sort.Strings(keys)
	return keys
}
