package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced to CLI consumers when a publish command fails. The CLI
// keys exit messaging off these, so bad input, interrupted runs, and pipeline
// failures stay distinguishable.
const (
	codeInvalidMessage = "SITEGEN_INVALID_MESSAGE"
	codeRunCancelled   = "SITEGEN_RUN_CANCELLED"
	codeRunTimeout     = "SITEGEN_RUN_TIMEOUT"
	codeRunFailed      = "SITEGEN_RUN_FAILED"
)

// wrapValidationError tags malformed command messages. Errors already carrying
// a category pass through untouched so inner wrapping wins.
func wrapValidationError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid command message").
		WithTextCode(codeInvalidMessage)
}

// wrapContextError distinguishes an interrupted run from one that outlived
// its deadline.
func wrapContextError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	msg, code := "command run interrupted", codeRunCancelled
	if errors.Is(err, context.DeadlineExceeded) {
		msg, code = "command run exceeded its deadline", codeRunTimeout
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, msg).WithTextCode(code)
}

func wrapExecuteError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command run failed").
		WithTextCode(codeRunFailed)
}
