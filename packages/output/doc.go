// Package output prints builder traffic and scenario results to the console.
//
// ConsoleFormatter serves two callers:
//   - Builders running with ShowDetails, through PrintRequest, PrintResponse
//     and PrintWarning
//   - The CLI, through FormatHeader, FormatScenario, FormatStep, FormatSummary
//     and FormatError
//
// Colors come from fatih/color and are disabled with WithNoColor.
package output
