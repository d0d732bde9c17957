package apierrors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// CLIErrorAdapter handles failure presentation and exit code determination for
// command line tools built on the platform client.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	stderr  io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		stderr:  os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the exit code for err from the catalog of its
// outermost failure. Unclassified errors exit with 1.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if f, ok := AsFailure(err); ok {
		d, _ := Describe(f.Kind())
		return d.ExitCode
	}
	return exitGeneral
}

// FormatError formats err for display. Verbose output includes the cause
// chain and the response status.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	f, ok := AsFailure(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if !a.verbose {
		return fmt.Sprintf("Error: %s", f.Message())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error [%s/%s]: %s", f.Category(), f.Kind(), err.Error())
	if h, ok := f.(*HTTPResponseError); ok {
		fmt.Fprintf(&b, "\n  status: %d %s", h.response.Code, h.response.StatusText)
		if d, ok := h.RetryAfter(); ok {
			fmt.Fprintf(&b, "\n  retry after: %s", d)
		}
	}
	if f.Kind().IsA(KindHTTPRetriable) {
		b.WriteString("\n  retryable: yes")
	}
	return b.String()
}

// HandleError prints err and exits with its exit code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(a.stderr, "%s\n", message)
	a.exit(exitCode)
}

// shouldLog logs everything in verbose mode and local faults otherwise.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if f, ok := AsFailure(err); ok {
		return levelFor(f.Category()) >= slog.LevelError
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	if f, ok := AsFailure(err); ok {
		attrs := []slog.Attr{
			slog.String("kind", string(f.Kind())),
			slog.String("category", string(f.Category())),
		}
		if f.Kind().IsA(KindHTTPRetriable) {
			attrs = append(attrs, slog.Bool("retryable", true))
		}
		a.logger.LogAttrs(context.Background(), levelFor(f.Category()), f.Message(), attrs...)
		return
	}
	a.logger.Error("Unclassified error", "error", err)
}
