package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/hitchain/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a new hitchain project",
	Long: `Initialize a new hitchain project, in the current directory by default.

This creates:
  - .hitchain.yaml        - Configuration file
  - example.chain.yaml    - Example scenario

Examples:
  hitchain init
  hitchain init ./api-tests --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleScenario = `name: example
steps:
  - name: health
    path: /health
    expect:
      status: 200

  - name: createResource
    method: POST
    path: /resources
    body:
      name: Test Resource
      requestId: "{{uuid()}}"
    expect:
      status: 201
      fields:
        id:
        name: Test Resource
    save:
      fields:
        resourceId: id

  - name: getResource
    path: /resources/{{resourceId}}
    expect:
      status: 200
      fields:
        id: "{{resourceId}}"
`

func initCommand(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	configFile := filepath.Join(dir, ".hitchain.yaml")
	exampleFile := filepath.Join(dir, "example.chain.yaml")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://localhost:3000"
	cfg.Headers = map[string]string{"User-Agent": "hitchain/" + version}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleScenario), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\nhitchain project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'hitchain run %s' to execute the example scenario.\n", exampleFile)

	return nil
}
