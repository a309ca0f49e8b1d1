package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/morozRed/blueprint/internal/ctxlog"
	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/split"
)

// RunSplit partitions the project's modules into the package files a split
// config describes, then loads the result back as a project.
func RunSplit(cmd *cobra.Command, args []string) error {
	configPath, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return err
	}
	if configPath == "" {
		return fmt.Errorf("--config is required")
	}
	dryRun, err := OptionalBoolFlag(cmd, "dry-run", false)
	if err != nil {
		return err
	}
	force, err := OptionalBoolFlag(cmd, "force", false)
	if err != nil {
		return err
	}

	cfg, cfgDiags, err := split.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg == nil || diag.HasErrors(cfgDiags) {
		return reportDiagnostics(cmd, cfgDiags)
	}

	p, err := loadProject(cmd)
	if err != nil {
		return err
	}
	plan := split.NewPlan(p, cfg)
	plan.Diagnostics = append(cfgDiags, plan.Diagnostics...)
	if plan.HasErrors() || dryRun {
		return writeSplitPlan(cmd, plan, cfg.OutputDir(), dryRun)
	}

	ctx := commandContext(cmd)
	dir := cfg.OutputDir()
	written, writeDiags, err := plan.Write(ctx, dir, force)
	if err != nil {
		return err
	}
	plan.Diagnostics = append(plan.Diagnostics, writeDiags...)
	if diag.HasErrors(writeDiags) {
		return reportDiagnostics(cmd, plan.Diagnostics)
	}
	ctxlog.FromContext(ctx).Info("split written", "dir", dir, "files", len(written))
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	if !asJSON {
		for _, rel := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", filepath.Join(dir, filepath.FromSlash(rel)))
		}
	}

	if cfg.RunProjectCheck() {
		verifyDiags, err := split.Verify(ctx, dir, plan)
		if err != nil {
			return err
		}
		plan.Diagnostics = append(plan.Diagnostics, verifyDiags...)
	}
	diag.Sort(plan.Diagnostics)
	return reportDiagnostics(cmd, plan.Diagnostics)
}

func writeSplitPlan(cmd *cobra.Command, plan *split.Plan, dir string, dryRun bool) error {
	ok, err := printJSON(cmd, plan)
	if err != nil {
		return err
	}
	if ok {
		if plan.HasErrors() {
			return ErrDiagnostics
		}
		return nil
	}
	out := cmd.OutOrStdout()
	if dryRun {
		fmt.Fprintf(out, "split plan (dry run) into %s:\n", dir)
		for _, o := range plan.Outputs {
			fmt.Fprintf(out, "  %s [%s] modules=%d symbols=%d\n", o.Path, o.Package, len(o.Modules), len(o.Symbols))
		}
		fmt.Fprintf(out, "  %s\n", plan.ManifestPath)
	}
	if err := diag.WriteText(out, plan.Diagnostics); err != nil {
		return err
	}
	if plan.HasErrors() {
		return ErrDiagnostics
	}
	return nil
}
