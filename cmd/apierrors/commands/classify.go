package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"git.home.luguber.info/inful/commerceapi/apierrors"
	"git.home.luguber.info/inful/commerceapi/internal/config"
	"git.home.luguber.info/inful/commerceapi/internal/logfields"
	"git.home.luguber.info/inful/commerceapi/internal/retry"
)

// ClassifyCmd implements the 'classify' command.
type ClassifyCmd struct {
	Status     int               `short:"s" help:"HTTP status code of the response" required:""`
	StatusText string            `help:"Reason phrase (defaults to the standard text for the status)"`
	RetryAfter string            `help:"Retry-After header value, in seconds or as an HTTP date"`
	Body       string            `short:"b" help:"Response body"`
	Header     map[string]string `short:"H" help:"Response header as KEY=VALUE (repeatable)"`
	Attempt    int               `help:"Retry attempt to advise on (1-based)" default:"1"`
	ExitCode   bool              `help:"Exit with the code mapped to the classified failure"`
}

// Run executes the classify command.
func (cmd *ClassifyCmd) Run(g *Global, root *CLI) error {
	cfg := root.Settings()

	err := cmd.classify(cfg)
	if err == nil {
		_, werr := fmt.Fprintf(g.out(), "status %d is not a failure\n", cmd.Status)
		return werr
	}

	advisor := retry.NewAdvisor(retry.FromConfig(cfg.Retry), nil)
	adapter := apierrors.NewHTTPErrorAdapter(g.logger(), apierrors.WithDetails(cfg.Adapter.ExposeDetails))
	if werr := writeReport(g.out(), err, advisor.Advise(err, cmd.Attempt), adapter); werr != nil {
		return werr
	}

	g.logger().Debug("Classified response", logfields.Status(cmd.Status), logfields.Failure(err))
	if cmd.ExitCode {
		return err
	}
	return nil
}

func (cmd *ClassifyCmd) classify(cfg *config.Config) error {
	classifier := apierrors.NewClassifier(apierrors.ClassifierOptions{
		BodyLimit:         cfg.Classifier.BodyLimit,
		RetriableStatuses: cfg.Classifier.RetriableStatuses,
	})

	headers := make(http.Header, len(cmd.Header)+1)
	for k, v := range cmd.Header {
		headers.Set(k, v)
	}
	if cmd.RetryAfter != "" {
		headers.Set("Retry-After", cmd.RetryAfter)
	}

	return classifier.ClassifyDescriptor(apierrors.ResponseDescriptor{
		Code:       cmd.Status,
		StatusText: cmd.StatusText,
		Headers:    headers,
		Body:       []byte(cmd.Body),
	})
}

func writeReport(w io.Writer, err error, d retry.Decision, adapter *apierrors.HTTPErrorAdapter) error {
	kind := apierrors.KindOf(err)
	lineage := make([]string, 0, 4)
	for _, k := range kind.Lineage() {
		lineage = append(lineage, string(k))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "kind:        %s\n", kind)
	fmt.Fprintf(&b, "lineage:     %s\n", strings.Join(lineage, " > "))
	fmt.Fprintf(&b, "category:    %s\n", apierrors.CategoryOf(err))
	if f, ok := apierrors.AsFailure(err); ok {
		fmt.Fprintf(&b, "message:     %s\n", f.Message())
	}
	if h, ok := apierrors.AsHTTPResponse(err); ok {
		if ra, ok := h.RetryAfter(); ok {
			fmt.Fprintf(&b, "retry after: %s\n", ra)
		}
	}
	if d.Retry {
		fmt.Fprintf(&b, "retry:       yes, after %s (%s)\n", d.Delay, d.Reason)
	} else {
		fmt.Fprintf(&b, "retry:       no (%s)\n", d.Reason)
	}
	fmt.Fprintf(&b, "http status: %d\n", adapter.StatusCodeFor(err))

	envelope, jerr := json.MarshalIndent(adapter.FormatErrorResponse(err), "", "  ")
	if jerr != nil {
		return fmt.Errorf("encode reply: %w", jerr)
	}
	b.WriteString("reply:\n")
	b.Write(envelope)
	b.WriteString("\n")

	_, werr := io.WriteString(w, b.String())
	return werr
}
