// Package resolve maps reference strings to symbol IDs.
//
// Resolution order, first match wins:
//  1. the prefix is a known namespace: the reference is fully qualified;
//  2. the file declares a namespace: try "<namespace>.<ref>";
//  3. the prefix is an import alias: substitute the alias target. A bare
//     reference also searches the namespaces of unaliased imports;
//  4. the reference as written.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/morozRed/blueprint/internal/diag"
	"github.com/morozRed/blueprint/internal/document"
	"github.com/morozRed/blueprint/internal/symbol"
)

// Policy decides how a bare name matching several imported symbols is
// reported.
type Policy int

const (
	Lenient Policy = iota
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "lenient"
}

type Status int

const (
	Resolved Status = iota
	Unresolved
	Ambiguous
	KindMismatch
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Ambiguous:
		return "ambiguous"
	case KindMismatch:
		return "kind_mismatch"
	default:
		return "unresolved"
	}
}

type Result struct {
	ID         symbol.ID
	Status     Status
	Candidates []string
}

type Resolver struct {
	table  *symbol.Table
	policy Policy
}

func New(table *symbol.Table, policy Policy) *Resolver {
	return &Resolver{table: table, policy: policy}
}

func (r *Resolver) Table() *symbol.Table {
	return r.table
}

func (r *Resolver) Policy() Policy {
	return r.policy
}

// Resolve looks ref up from ctx and checks it names a symbol of kind want.
func (r *Resolver) Resolve(ctx symbol.NamespaceContext, ref string, want document.Kind) Result {
	ref = strings.TrimSpace(ref)
	parsed, ok := symbol.ParseRef(ref)
	if !ok {
		return Result{ID: symbol.NoID, Status: Unresolved}
	}

	res := r.lookup(ctx, ref, parsed)
	if res.Status != Resolved {
		return res
	}
	if sym := r.table.Get(res.ID); sym.Kind != want {
		res.Status = KindMismatch
	}
	return res
}

func (r *Resolver) lookup(ctx symbol.NamespaceContext, ref string, parsed symbol.Ref) Result {
	if !parsed.Bare() && r.table.HasNamespace(parsed.Prefix) {
		return r.exact(ref)
	}

	if ctx.Namespace != "" {
		if id, ok := r.table.Lookup(ctx.Namespace + "." + ref); ok {
			return Result{ID: id, Status: Resolved}
		}
	}

	if !parsed.Bare() {
		if imp, ok := ctx.Alias(parsed.Prefix); ok {
			return r.among(imp.Namespaces, parsed)
		}
	} else {
		var namespaces []string
		for _, imp := range ctx.Unaliased() {
			namespaces = append(namespaces, imp.Namespaces...)
		}
		if res := r.among(namespaces, parsed); res.Status != Unresolved {
			return res
		}
	}

	return r.exact(ref)
}

func (r *Resolver) exact(name string) Result {
	if id, ok := r.table.Lookup(name); ok {
		return Result{ID: id, Status: Resolved}
	}
	return Result{ID: symbol.NoID, Status: Unresolved}
}

func (r *Resolver) among(namespaces []string, parsed symbol.Ref) Result {
	seen := make(map[symbol.ID]bool)
	var hits []symbol.ID
	for _, ns := range namespaces {
		id, ok := r.table.Lookup(symbol.Qualify(ns, parsed.Kind, parsed.Name))
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		hits = append(hits, id)
	}
	switch len(hits) {
	case 0:
		return Result{ID: symbol.NoID, Status: Unresolved}
	case 1:
		return Result{ID: hits[0], Status: Resolved}
	default:
		names := make([]string, len(hits))
		for i, id := range hits {
			names[i] = r.table.Get(id).Name
		}
		sort.Strings(names)
		return Result{ID: symbol.NoID, Status: Ambiguous, Candidates: names}
	}
}

// Diagnose turns a failed result into a diagnostic. The caller fills in
// file and symbol details. ok is false for resolved results.
func (r *Resolver) Diagnose(res Result, ref string, want document.Kind) (diag.Diagnostic, bool) {
	switch res.Status {
	case Unresolved:
		return diag.Errorf(diag.CodeUnresolvedRef, fmt.Sprintf("%s reference %q does not resolve", want, ref)), true
	case KindMismatch:
		got := r.table.Get(res.ID)
		return diag.Errorf(diag.CodeKindMismatch, fmt.Sprintf("reference %q names a %s, expected a %s", ref, got.Kind, want)), true
	case Ambiguous:
		msg := fmt.Sprintf("reference %q is ambiguous; candidates: %s", ref, strings.Join(res.Candidates, ", "))
		if r.policy == Strict {
			return diag.Errorf(diag.CodeAmbiguousNameError, msg), true
		}
		return diag.Warnf(diag.CodeAmbiguousName, msg), true
	default:
		return diag.Diagnostic{}, false
	}
}
