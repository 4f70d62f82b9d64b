// Package cmd implements the hitchain CLI commands using Cobra.
//
// Available commands:
//   - run: Execute scenario files, optionally re-running on change
//   - validate: Check scenario files without sending requests
//   - list: Display the steps defined in scenario files
//   - init: Create a config file and an example scenario
//   - completion: Generate shell completion scripts
//   - version: Show hitchain version information
package cmd
