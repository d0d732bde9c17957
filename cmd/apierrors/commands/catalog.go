package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/inful/mdfp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/commerceapi/apierrors"
)

// CatalogCmd implements the 'catalog' command.
type CatalogCmd struct {
	Format string `short:"f" help:"Output format: text, json, yaml, markdown, html" default:"text" enum:"text,json,yaml,markdown,html"`
	Output string `short:"o" help:"Output file path (optional, prints to stdout if not specified)"`
}

// Run executes the catalog command.
func (cmd *CatalogCmd) Run(g *Global, _ *CLI) error {
	output, err := RenderCatalog(apierrors.Catalog(), cmd.Format)
	if err != nil {
		return fmt.Errorf("failed to render catalog: %w", err)
	}

	if cmd.Output != "" {
		if err := os.WriteFile(cmd.Output, []byte(output), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		g.logger().Info("Catalog written", "file", cmd.Output, "format", cmd.Format)
		return nil
	}

	_, err = fmt.Fprint(g.out(), output)
	return err
}

// RenderCatalog renders descriptors in one of the supported formats.
func RenderCatalog(ds []apierrors.Descriptor, format string) (string, error) {
	switch format {
	case "", "text":
		return renderText(ds), nil
	case "json":
		b, err := json.MarshalIndent(ds, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	case "yaml":
		b, err := yaml.Marshal(ds)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case "markdown":
		return withFrontmatter(renderMarkdown(ds), len(ds))
	case "html":
		var buf bytes.Buffer
		md := goldmark.New(goldmark.WithExtensions(extension.Table))
		if err := md.Convert([]byte(renderMarkdown(ds)), &buf); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

func renderText(ds []apierrors.Descriptor) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tPARENT\tCATEGORY\tRETRY\tSTATUS\tEXIT\tMESSAGE")
	for _, d := range ds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			d.Kind, orDash(string(d.Parent)), d.Category, d.Retry, d.Status, d.ExitCode, d.Message)
	}
	_ = tw.Flush()
	return b.String()
}

// renderMarkdown groups descriptors by category, in catalog order.
func renderMarkdown(ds []apierrors.Descriptor) string {
	var order []apierrors.Category
	groups := make(map[apierrors.Category][]apierrors.Descriptor)
	for _, d := range ds {
		if _, seen := groups[d.Category]; !seen {
			order = append(order, d.Category)
		}
		groups[d.Category] = append(groups[d.Category], d)
	}

	var b strings.Builder
	b.WriteString("# Failure catalog\n")
	for _, c := range order {
		fmt.Fprintf(&b, "\n## %s\n\n", heading(c))
		b.WriteString("| Kind | Parent | Retry | Status | Exit | Message |\n")
		b.WriteString("|---|---|---|---|---|---|\n")
		for _, d := range groups[c] {
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s | %s |\n",
				d.Kind, parentCell(d.Parent), d.Retry, strconv.Itoa(d.Status), strconv.Itoa(d.ExitCode),
				strings.ReplaceAll(d.Message, "|", `\|`))
		}
	}
	return b.String()
}

// withFrontmatter prefixes body with YAML frontmatter carrying a content
// fingerprint, so regenerated catalogs can be compared without diffing tables.
func withFrontmatter(body string, kinds int) (string, error) {
	fields := map[string]any{
		"title": "Failure catalog",
		"kinds": kinds,
	}
	hashed, err := yaml.Marshal(fields)
	if err != nil {
		return "", err
	}
	fields[mdfp.FingerprintField] = mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(hashed), "\n"), body)

	fm, err := yaml.Marshal(fields)
	if err != nil {
		return "", err
	}
	return "---\n" + string(fm) + "---\n" + body, nil
}

// heading turns a snake_case category into a title, e.g. "Http Response".
func heading(c apierrors.Category) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(c), "_", " "))
}

func parentCell(k apierrors.Kind) string {
	if k == "" {
		return "-"
	}
	return "`" + string(k) + "`"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
