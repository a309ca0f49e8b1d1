package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morozRed/blueprint/internal/drift"
)

const (
	FormatText     = "text"
	FormatMermaid  = "mermaid"
	FormatMarkdown = "md"
)

func OptionalBoolFlag(cmd *cobra.Command, name string, fallback bool) (bool, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return fallback, nil
	}
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

func OptionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return "", nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

// changedStringFlag returns nil when the flag was not given, so an explicit
// empty value can still be told apart.
func changedStringFlag(cmd *cobra.Command, name string) (*string, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil || !cmd.Flags().Changed(name) {
		return nil, nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return &value, nil
}

func changedFloatFlag(cmd *cobra.Command, name string) (*float64, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil || !cmd.Flags().Changed(name) {
		return nil, nil
	}
	value, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return &value, nil
}

func OptionalIntFlag(cmd *cobra.Command, name string, fallback int) (int, error) {
	if cmd == nil || cmd.Flags().Lookup(name) == nil {
		return fallback, nil
	}
	value, err := cmd.Flags().GetInt(name)
	if err != nil {
		return 0, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

// ParseLanguageFilter reads --lang and returns the normalized language, or
// "either" when the flag is absent.
func ParseLanguageFilter(cmd *cobra.Command) (string, error) {
	raw, err := OptionalStringFlag(cmd, "lang")
	if err != nil {
		return "", err
	}
	if raw == "" {
		return drift.LanguageEither, nil
	}
	lang := drift.NormalizeLanguage(raw)
	switch lang {
	case "go", "rust", "typescript", drift.LanguageEither:
		return lang, nil
	default:
		return "", fmt.Errorf("unsupported language %q (supported: go, rust, ts, either)", raw)
	}
}

// ParseOutputFormat reads --format for commands that can draw Mermaid.
func ParseOutputFormat(cmd *cobra.Command) (string, error) {
	value, err := OptionalStringFlag(cmd, "format")
	if err != nil {
		return "", err
	}
	switch strings.ToLower(value) {
	case "", FormatText:
		return FormatText, nil
	case FormatMermaid:
		return FormatMermaid, nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: text, mermaid)", value)
	}
}

// ParseReportFormat reads --format for commands that print a report.
func ParseReportFormat(cmd *cobra.Command) (string, error) {
	value, err := OptionalStringFlag(cmd, "format")
	if err != nil {
		return "", err
	}
	switch strings.ToLower(value) {
	case "", FormatText:
		return FormatText, nil
	case FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: text, md)", value)
	}
}
