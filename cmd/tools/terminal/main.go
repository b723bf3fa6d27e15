package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes
const (
	ExitSuccess        = 0
	ExitPipelineFailed = 1
	ExitError          = 2
)

func main() {
	err := execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps the command result to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var pipelineErr *PipelineFailedError
	if errors.As(err, &pipelineErr) {
		return ExitPipelineFailed
	}
	return ExitError
}
