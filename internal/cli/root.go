package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/morozRed/blueprint/internal/ctxlog"
	"github.com/morozRed/blueprint/internal/logging"
	"github.com/morozRed/blueprint/internal/manifest"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "blueprint",
		Short: "Validate and navigate TOML architecture descriptions",
		Long: `Blueprint reads architecture documents (schemas, funcs and modules
declared in TOML), resolves every reference across files and packages,
and reports what is broken, unused or cyclic.

Projects are rooted at a blueprint.toml manifest. Diagnostics go to
stdout; logs go to stderr.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogging,
	}
	rootCmd.PersistentFlags().String("manifest", manifest.DefaultFile, "Project manifest")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().String("log-format", logging.FormatText, "Log format: text|json")

	// Check Commands
	validateCmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check the project, or one file of it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunValidate,
	}
	validateCmd.Flags().Bool("strict", false, "Treat ambiguous names as errors")
	validateCmd.Flags().Bool("json", false, "Print machine-readable diagnostics")

	deployCheckCmd := &cobra.Command{
		Use:   "deploy-check <file>",
		Short: "Check a deployment description",
		Args:  cobra.ExactArgs(1),
		RunE:  RunDeployCheck,
	}
	deployCheckCmd.Flags().Bool("json", false, "Print machine-readable diagnostics")
	deployCheckCmd.Flags().String("format", FormatText, "Output format: text|mermaid")

	diffImplCmd := &cobra.Command{
		Use:   "diff-impl",
		Short: "Compare impl bindings with the symbols in code",
		Args:  cobra.NoArgs,
		RunE:  RunDiffImpl,
	}
	diffImplCmd.Flags().String("mod", "", "Only check this module's closure")
	diffImplCmd.Flags().String("lang", "", "Only check one language: go|rust|ts|either")
	diffImplCmd.Flags().String("root", "", "Source root (default: manifest directory)")
	diffImplCmd.Flags().Bool("lsp", false, "Query a language server instead of parsing source")
	diffImplCmd.Flags().Duration("timeout", time.Minute, "Language server timeout")
	diffImplCmd.Flags().String("format", FormatText, "Report format: text|md")
	diffImplCmd.Flags().Bool("json", false, "Print machine-readable drift report")

	// Navigate Commands
	inspectCmd := &cobra.Command{
		Use:   "inspect <mod>",
		Short: "Show a module's schemas, funcs, pipeline and dependencies",
		Args:  cobra.ExactArgs(1),
		RunE:  RunInspect,
	}
	inspectCmd.Flags().Bool("json", false, "Print machine-readable module view")

	closureCmd := &cobra.Command{
		Use:   "closure <symbol>",
		Short: "Show everything a symbol transitively references",
		Args:  cobra.ExactArgs(1),
		RunE:  RunClosure,
	}
	closureCmd.Flags().Bool("full", false, "Print the closure as a self-contained document")
	closureCmd.Flags().Bool("json", false, "Print machine-readable closure")

	refsCmd := &cobra.Command{
		Use:   "refs <symbol>",
		Short: "Show what references a symbol",
		Args:  cobra.ExactArgs(1),
		RunE:  RunRefs,
	}
	refsCmd.Flags().Bool("json", false, "Print machine-readable references")

	traceCmd := &cobra.Command{
		Use:   "trace <symbol>",
		Short: "Show a symbol's direct upstream and downstream",
		Args:  cobra.ExactArgs(1),
		RunE:  RunTrace,
	}
	traceCmd.Flags().Bool("json", false, "Print machine-readable trace")

	depsCmd := &cobra.Command{
		Use:   "deps",
		Short: "Show package and module dependencies",
	}
	depsCmd.PersistentFlags().String("format", FormatText, "Output format: text|mermaid")
	depsCmd.PersistentFlags().Bool("json", false, "Print machine-readable dependencies")
	depsCmd.AddCommand(
		&cobra.Command{Use: "packages", Short: "List packages", Args: cobra.NoArgs, RunE: RunDepsPackages},
		&cobra.Command{Use: "modules <package>", Short: "List a package's modules", Args: cobra.ExactArgs(1), RunE: RunDepsModules},
		&cobra.Command{Use: "mod <mod>", Short: "Show one module's dependencies and dependents", Args: cobra.ExactArgs(1), RunE: RunDepsModule},
		&cobra.Command{Use: "cross", Short: "List module dependencies that cross packages", Args: cobra.NoArgs, RunE: RunDepsCross},
		&cobra.Command{Use: "schemas", Short: "Draw schema references as Mermaid", Args: cobra.NoArgs, RunE: RunDepsSchemas},
	)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export interactive HTML views",
	}
	exportCmd.PersistentFlags().String("out", "", "Output path, or - for stdout (default: stdout)")
	exportCmd.AddCommand(
		&cobra.Command{Use: "html", Short: "Export the project graph as HTML", Args: cobra.NoArgs, RunE: RunExportHTML},
		&cobra.Command{Use: "deploy-html <file>", Short: "Export a deployment job graph as HTML", Args: cobra.ExactArgs(1), RunE: RunExportDeployHTML},
	)

	// Edit Commands
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Track module implementation status in a document",
	}
	statusSetCmd := &cobra.Command{
		Use:   "set <mod> <file>",
		Short: "Update one module's status",
		Args:  cobra.ExactArgs(2),
		RunE:  RunStatusSet,
	}
	statusSetCmd.Flags().String("state", "", "State: todo|skeleton|partial|done|blocked")
	statusSetCmd.Flags().Float64("coverage", 0, "Coverage between 0 and 1")
	statusSetCmd.Flags().String("notes", "", "Free-form notes")
	statusListCmd := &cobra.Command{
		Use:   "list <file>",
		Short: "List every module's status",
		Args:  cobra.ExactArgs(1),
		RunE:  RunStatusList,
	}
	statusListCmd.Flags().Bool("json", false, "Print machine-readable status")
	statusShowCmd := &cobra.Command{
		Use:   "show <mod> <file>",
		Short: "Show one module's status",
		Args:  cobra.ExactArgs(2),
		RunE:  RunStatusShow,
	}
	statusShowCmd.Flags().Bool("json", false, "Print machine-readable status")
	statusCmd.AddCommand(
		&cobra.Command{Use: "init <file>", Short: "Add a [status] section listing every module", Args: cobra.ExactArgs(1), RunE: RunStatusInit},
		&cobra.Command{Use: "sync <file>", Short: "Add status entries for new modules", Args: cobra.ExactArgs(1), RunE: RunStatusSync},
		statusSetCmd,
		statusListCmd,
		statusShowCmd,
	)

	splitCmd := &cobra.Command{
		Use:   "split",
		Short: "Partition modules into per-package documents",
		Args:  cobra.NoArgs,
		RunE:  RunSplit,
	}
	splitCmd.Flags().String("config", "", "Split config file")
	splitCmd.Flags().Bool("dry-run", false, "Print the plan without writing")
	splitCmd.Flags().Bool("force", false, "Overwrite outputs that differ")
	splitCmd.Flags().Bool("json", false, "Print machine-readable plan or diagnostics")

	codegenCmd := &cobra.Command{
		Use:   "codegen <github|gitlab> <deploy-file>",
		Short: "Generate CI configuration from a deployment description",
		Args:  cobra.ExactArgs(2),
		RunE:  RunCodegen,
	}
	codegenCmd.Flags().String("out", "", "Output path, or - for stdout (default: the platform's usual path)")

	// Setup Commands
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter manifest and IR directory",
		Args:  cobra.NoArgs,
		RunE:  RunInit,
	}
	initCmd.Flags().String("name", "", "Project name (default: directory name)")
	initCmd.Flags().String("ir-root", "ir", "Directory holding the documents")
	initCmd.Flags().String("llm", "", "Generate LLM integration files (comma-separated: codex,claude,cursor)")

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the manifest, hook, state freshness and tooling",
		Args:  cobra.NoArgs,
		RunE:  RunDoctor,
	}
	doctorCmd.Flags().Bool("explain", false, "Explain why each impacted document is listed")
	doctorCmd.Flags().Bool("json", false, "Print machine-readable doctor output")

	installHookCmd := &cobra.Command{
		Use:   "install-hook",
		Short: "Install a git pre-commit hook that runs validate",
		Args:  cobra.NoArgs,
		RunE:  RunInstallHook,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "blueprint %s\n", version)
		},
	}

	rootCmd.AddCommand(
		validateCmd,
		deployCheckCmd,
		diffImplCmd,
		inspectCmd,
		closureCmd,
		refsCmd,
		traceCmd,
		depsCmd,
		exportCmd,
		statusCmd,
		splitCmd,
		codegenCmd,
		initCmd,
		doctorCmd,
		installHookCmd,
		versionCmd,
	)

	return rootCmd
}

// setupLogging attaches a stderr logger built from --log-level and
// --log-format to the command's context.
func setupLogging(cmd *cobra.Command, args []string) error {
	levelName, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return fmt.Errorf("failed to read --log-level flag: %w", err)
	}
	format, err := cmd.Flags().GetString("log-format")
	if err != nil {
		return fmt.Errorf("failed to read --log-format flag: %w", err)
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), level, format)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(ctxlog.WithLogger(ctx, logger))
	return nil
}
