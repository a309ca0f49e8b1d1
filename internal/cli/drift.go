package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/morozRed/blueprint/internal/ctxlog"
	"github.com/morozRed/blueprint/internal/drift"
	"github.com/morozRed/blueprint/internal/ignore"
	"github.com/morozRed/blueprint/internal/languages"
	"github.com/morozRed/blueprint/internal/lsp"
	"github.com/morozRed/blueprint/internal/symbol"
)

// lspRunner is replaced in tests.
var lspRunner lsp.CommandRunner

// RunDiffImpl compares the code symbols declared through impl.* with the
// ones in the source tree and fails when they drifted apart.
func RunDiffImpl(cmd *cobra.Command, args []string) error {
	p, err := loadProject(cmd)
	if err != nil {
		return err
	}
	modName, err := OptionalStringFlag(cmd, "mod")
	if err != nil {
		return err
	}
	lang, err := ParseLanguageFilter(cmd)
	if err != nil {
		return err
	}
	useLSP, err := OptionalBoolFlag(cmd, "lsp", false)
	if err != nil {
		return err
	}
	format, err := ParseReportFormat(cmd)
	if err != nil {
		return err
	}
	root, err := OptionalStringFlag(cmd, "root")
	if err != nil {
		return err
	}
	if root == "" {
		root = p.Manifest.Root
	} else if root, err = filepath.Abs(root); err != nil {
		return fmt.Errorf("failed to resolve --root: %w", err)
	}

	var mod *symbol.Symbol
	if modName != "" {
		if mod, err = p.Find(modName); err != nil {
			return err
		}
	}
	expected, err := drift.ExpectedSymbols(p, mod)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	var src drift.Source
	if useLSP {
		timeout, err := cmd.Flags().GetDuration("timeout")
		if err != nil {
			return fmt.Errorf("failed to read --timeout flag: %w", err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()

		serverLang := lang
		if serverLang == drift.LanguageEither {
			serverLang = "go"
		}
		capability := lsp.ProbeCapabilities(map[string]bool{serverLang: true})[serverLang]
		if lspRunner == nil && !capability.Available {
			return fmt.Errorf("no language server for %s: %s", serverLang, capability.Reason)
		}
		src = drift.LSPSource{Root: root, Server: capability.Server, Language: serverLang, Runner: lspRunner}
	} else {
		matcher, err := ignore.Load(root)
		if err != nil {
			return err
		}
		src = drift.ScanSource{Root: root, Registry: languages.NewDefaultRegistry(), Ignore: matcher}
	}

	start := time.Now()
	res, err := drift.Run(ctx, expected, src, drift.Options{Language: lang})
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("diff-impl finished",
		"expected", res.TotalExpected(),
		"found", res.TotalFound(),
		"lsp", useLSP,
		"duration", time.Since(start),
	)

	write := drift.WriteText
	if format == FormatMarkdown {
		write = drift.WriteMarkdown
	}
	var writeErr error
	if err := writeResult(cmd, drift.NewReport(res), func(w io.Writer) { writeErr = write(w, res) }); err != nil {
		return err
	}
	if writeErr != nil {
		return fmt.Errorf("failed to write drift report: %w", writeErr)
	}
	if res.HasIssues() {
		return ErrDrift
	}
	return finishQuery(cmd, p)
}
