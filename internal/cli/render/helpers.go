package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/thebadge/badgectl/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	headerStyle  = color.New(color.FgCyan, color.Bold)
	successStyle = color.New(color.FgGreen)
	warnStyle    = color.New(color.FgYellow)
	errorStyle   = color.New(color.FgRed)
	faintStyle   = color.New(color.Faint)
	addressStyle = color.New(color.FgWhite)
)

var titleCaser = cases.Title(language.English)

// Title capitalizes a lower case label such as a verifier name
func Title(s string) string {
	return titleCaser.String(s)
}

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return warnStyle.Sprintf("⚠️  %s", message)
}

// FormatError formats an error for the terminal. Domain errors keep their
// own wording; wrapped context is kept so the failing contract stays visible.
func FormatError(err error) string {
	msg := err.Error()
	var missing *domain.MissingConfigurationError
	if errors.As(err, &missing) && missing.Network != "" {
		msg = fmt.Sprintf("%s\nSet them in badgectl.toml under [networks.%s] or in .env", msg, missing.Network)
	}
	return errorStyle.Sprintf("Error: %s", msg)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return successStyle.Sprintf("✅ %s", message)
}

// WriteJSON prints v as indented JSON
func WriteJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(out io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateHeader = true
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(header)
	return t
}

func formatDuration(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
