package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/morozRed/blueprint/internal/codegen"
	"github.com/morozRed/blueprint/internal/ctxlog"
	"github.com/morozRed/blueprint/internal/deploy"
	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/fileutil"
	"github.com/morozRed/blueprint/internal/loader"
	"github.com/morozRed/blueprint/internal/mermaid"
)

// loadDeploy parses a deployment file. A syntax error comes back as an
// E_PARSE diagnostic rather than an error.
func loadDeploy(path string) (*deploy.File, []diag.Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read deploy file: %w", err)
	}
	f, err := deploy.Parse(filepath.ToSlash(path), data)
	if err != nil {
		if errors.Is(err, deploy.ErrNoDeploySection) {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, []diag.Diagnostic{loader.ParseDiagnostic(filepath.ToSlash(path), err)}, nil
	}
	return f, deploy.Check(f), nil
}

func RunDeployCheck(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(cmd)
	if err != nil {
		return err
	}
	f, diags, err := loadDeploy(args[0])
	if err != nil {
		return err
	}
	if f == nil || format != FormatMermaid {
		return reportDiagnostics(cmd, diags)
	}

	fmt.Fprint(cmd.OutOrStdout(), mermaid.DeployPipeline(f))
	if diag.HasErrors(diags) {
		if err := diag.WriteText(cmd.ErrOrStderr(), diags); err != nil {
			return err
		}
		return ErrDiagnostics
	}
	return nil
}

// RunCodegen writes CI configuration for a deployment file that checks
// clean. --out - prints it instead.
func RunCodegen(cmd *cobra.Command, args []string) error {
	platform, file := args[0], args[1]
	f, diags, err := loadDeploy(file)
	if err != nil {
		return err
	}
	if diag.HasErrors(diags) {
		fmt.Fprintln(cmd.ErrOrStderr(), "deploy-check failed; not generating CI config")
		if err := diag.WriteText(cmd.ErrOrStderr(), diags); err != nil {
			return err
		}
		return ErrDiagnostics
	}

	data, err := codegen.Generate(platform, f)
	if err != nil {
		return err
	}
	out, err := OptionalStringFlag(cmd, "out")
	if err != nil {
		return err
	}
	if out == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if out == "" {
		out = codegen.DefaultOutput(platform)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(out), err)
	}
	changed, err := fileutil.WriteIfChangedTracked(out, data)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	ctxlog.FromContext(commandContext(cmd)).Debug("generated CI config", "platform", platform, "path", out, "changed", changed)
	if changed {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is up to date\n", out)
	}
	return nil
}
