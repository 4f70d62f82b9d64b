package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/hitchain/packages/chain"
	"github.com/abdul-hamid-achik/hitchain/packages/scenario"
)

// Exit codes for the hitchain CLI
const (
	// ExitSuccess indicates all steps passed
	ExitSuccess = 0

	// ExitTestFailure indicates one or more steps failed
	ExitTestFailure = 1

	// ExitParseError indicates a scenario file could not be parsed or validated
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries an exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, scenario.ErrInvalidScenario):
		return ExitParseError
	case errors.Is(err, chain.ErrFetchFailed):
		return ExitNetworkError
	default:
		return ExitUsageError
	}
}
