package main

import (
	"fmt"
	"io"
	"os"

	"github.com/loykin/j2g/internal/common"
)

// ExitHandler provides a testable way to handle program termination
type ExitHandler interface {
	Exit(code int)
	LogFatalError(err error, msg string, keyvals ...any)
}

// DefaultExitHandler implements ExitHandler for production use
type DefaultExitHandler struct {
	out  io.Writer
	exit func(int)
}

func NewDefaultExitHandler() *DefaultExitHandler {
	return &DefaultExitHandler{out: os.Stderr, exit: os.Exit}
}

func (h *DefaultExitHandler) Exit(code int) {
	h.exit(code)
}

// LogFatalError prints "Error: <err>" for the user, logs the details and exits 1.
func (h *DefaultExitHandler) LogFatalError(err error, msg string, keyvals ...any) {
	_, _ = fmt.Fprintf(h.out, "Error: %v\n", err)
	allKeyvals := append([]any{"error", err}, keyvals...)
	common.GetLogger().WithComponent("main").Debug(msg, allKeyvals...)
	h.Exit(1)
}

// Global exit handler (can be replaced for testing)
var exitHandler ExitHandler = NewDefaultExitHandler()
