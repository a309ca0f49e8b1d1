package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/morozRed/blueprint/internal/deps"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/mermaid"
	"github.com/morozRed/blueprint/internal/project"
)

// depsView prints one dependency view. Mermaid output ignores --json.
func depsView(cmd *cobra.Command, run func(p *project.Project, format string) error) error {
	format, err := ParseOutputFormat(cmd)
	if err != nil {
		return err
	}
	p, err := loadProject(cmd)
	if err != nil {
		return err
	}
	if err := run(p, format); err != nil {
		return err
	}
	return finishQuery(cmd, p)
}

func RunDepsPackages(cmd *cobra.Command, args []string) error {
	return depsView(cmd, func(p *project.Project, format string) error {
		if format == FormatMermaid {
			fmt.Fprint(cmd.OutOrStdout(), mermaid.PackageGraph(p.PackageGraph()))
			return nil
		}
		pkgs := deps.Packages(p)
		if pkgs == nil {
			pkgs = []deps.Package{}
		}
		return writeResult(cmd, pkgs, func(w io.Writer) { deps.WritePackages(w, pkgs) })
	})
}

func RunDepsModules(cmd *cobra.Command, args []string) error {
	return depsView(cmd, func(p *project.Project, format string) error {
		mods, err := deps.PackageModules(p, args[0])
		if err != nil {
			return err
		}
		if format == FormatMermaid {
			fmt.Fprint(cmd.OutOrStdout(), mermaid.ModuleDependencies(p))
			return nil
		}
		if mods == nil {
			mods = []deps.Module{}
		}
		return writeResult(cmd, mods, func(w io.Writer) { deps.WriteModules(w, args[0], mods) })
	})
}

func RunDepsModule(cmd *cobra.Command, args []string) error {
	return depsView(cmd, func(p *project.Project, format string) error {
		if format == FormatMermaid {
			mod, err := p.Find(args[0])
			if err != nil {
				return err
			}
			if mod.Kind != document.KindMod {
				return fmt.Errorf("%s is a %s, not a module", mod.Name, mod.Kind)
			}
			fmt.Fprint(cmd.OutOrStdout(), mermaid.Pipeline(p, mod))
			return nil
		}
		mod, err := deps.ModuleDeps(p, args[0])
		if err != nil {
			return err
		}
		return writeResult(cmd, mod, func(w io.Writer) { deps.WriteModule(w, mod) })
	})
}

func RunDepsCross(cmd *cobra.Command, args []string) error {
	return depsView(cmd, func(p *project.Project, format string) error {
		if format == FormatMermaid {
			fmt.Fprint(cmd.OutOrStdout(), mermaid.CrossPackage(p))
			return nil
		}
		edges := deps.Cross(p)
		if edges == nil {
			edges = []deps.CrossEdge{}
		}
		return writeResult(cmd, edges, func(w io.Writer) { deps.WriteCross(w, edges) })
	})
}

// RunDepsSchemas draws which schemas reference which. It only has a
// Mermaid form.
func RunDepsSchemas(cmd *cobra.Command, args []string) error {
	p, err := loadProject(cmd)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), mermaid.SchemaGraph(p))
	return finishQuery(cmd, p)
}
