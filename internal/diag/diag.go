// Package diag defines analysis diagnostics. Diagnostics are values that
// accumulate over a run; they never stop analysis.
package diag

import (
	"sort"
	"strings"
)

type Severity string

const (
	Error   Severity = "error"
	Warning Severity = "warning"
)

// Codes.
const (
	CodeParse                 = "E_PARSE"
	CodeUnresolvedRef         = "E_UNRESOLVED_REF"
	CodeKindMismatch          = "E_KIND_MISMATCH"
	CodeNameConflict          = "E_NAME_CONFLICT"
	CodeAmbiguousNameError    = "E_AMBIGUOUS_NAME"
	CodeImportSyntax          = "E_IMPORT_SYNTAX"
	CodeInvalidType           = "E_INVALID_TYPE"
	CodeInvalidSchemaKind     = "E_INVALID_SCHEMA_KIND"
	CodeEdgeEndpointMissing   = "E_EDGE_ENDPOINT_MISSING"
	CodeUnexpectedEndpoint    = "E_UNEXPECTED_ENDPOINT"
	CodePipelineBroken        = "E_PIPELINE_BROKEN"
	CodePipelineDuplicateStep = "E_PIPELINE_DUPLICATE_STEP"
	CodeInvalidStatus         = "E_INVALID_STATUS"
	CodeInvalidRequire        = "E_INVALID_REQUIRE"
	CodeUnresolvedRequire     = "E_UNRESOLVED_REQUIRE"
	CodeCircularDependency    = "E_CIRCULAR_DEPENDENCY"
	CodePackageUnknown        = "E_PACKAGE_UNKNOWN"
	CodePackageRootMismatch   = "E_PACKAGE_ROOT_MISMATCH"
	CodePackageUnassigned     = "E_PACKAGE_UNASSIGNED"
	CodePackageAmbiguous      = "E_PACKAGE_AMBIGUOUS"
	CodePackageUnknownDep     = "E_PACKAGE_UNKNOWN_DEPENDENCY"

	CodeAmbiguousName        = "W_AMBIGUOUS_NAME"
	CodeUnknownImport        = "W_UNKNOWN_IMPORT"
	CodePipelinePartial      = "W_PIPELINE_PARTIAL"
	CodeUnusedSymbol         = "W_UNUSED_SYMBOL"
	CodeOrphanModule         = "W_ORPHAN_MODULE"
	CodeUnknownStatusModule  = "W_UNKNOWN_STATUS_MODULE"
	CodePackageDependency    = "W_PACKAGE_DEPENDENCY"
	CodeSharedSymbolCopied   = "W_SHARED_SYMBOL_COPIED"
	CodeClosureRenamed       = "W_CLOSURE_RENAMED"
	CodeUndefinedArtifact    = "W_UNDEFINED_ARTIFACT"
	CodeUnreachableJob       = "W_UNREACHABLE_JOB"
	CodeReleaseNoStrategy    = "W_RELEASE_WITHOUT_STRATEGY"
	CodeMissingHealthCheck   = "W_MISSING_HEALTH_CHECK"
	CodeUnknownSideEffect    = "W_UNKNOWN_SIDE_EFFECT"
	CodeUndefinedJob         = "E_UNDEFINED_JOB"
	CodeUndefinedTarget      = "E_UNDEFINED_TARGET"
	CodeUndefinedSecret      = "E_UNDEFINED_SECRET"
	CodeUndefinedPerm        = "E_UNDEFINED_PERM"
	CodeNoEntryPoint         = "E_NO_ENTRY_POINT"
	CodeSecretScope          = "E_SECRET_SCOPE_VIOLATION"
	CodeNoProductionGate     = "E_NO_PRODUCTION_GATE"
	CodeNoProductionRollback = "E_NO_PRODUCTION_ROLLBACK"
	CodeUngatedSideEffect    = "E_UNGATED_SIDE_EFFECT"
	CodeSideEffectNoTarget   = "E_SIDE_EFFECT_WITHOUT_TARGET"
	CodeSplitConfig          = "E_SPLIT_CONFIG"
	CodeModNotFound          = "E_MOD_NOT_FOUND"
	CodeDupOutput            = "E_DUP_OUTPUT"
	CodeWriteConflict        = "E_WRITE_CONFLICT"
)

// Diagnostic is one finding. Order is the declaration order of Symbol in
// File; project-level findings use 0.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
	Symbol   string   `json:"symbol,omitempty"`
	Location string   `json:"location,omitempty"`
	Line     int      `json:"line,omitempty"`
	Order    int      `json:"-"`
	Path     []string `json:"path,omitempty"`
}

func (d Diagnostic) IsError() bool {
	return d.Severity == Error
}

func Errorf(code, message string) Diagnostic {
	return Diagnostic{Severity: Error, Code: code, Message: message}
}

func Warnf(code, message string) Diagnostic {
	return Diagnostic{Severity: Warning, Code: code, Message: message}
}

// Sort orders diagnostics by file, declaration order, code, then message.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.Message != b.Message {
			return a.Message < b.Message
		}
		return a.Location < b.Location
	})
}

// Dedupe drops exact repeats, keeping the first occurrence.
func Dedupe(diags []Diagnostic) []Diagnostic {
	seen := make(map[string]bool, len(diags))
	out := diags[:0]
	for _, d := range diags {
		key := strings.Join([]string{string(d.Severity), d.Code, d.File, d.Symbol, d.Location, d.Message}, "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Count returns the number of errors and warnings.
func Count(diags []Diagnostic) (errs int, warns int) {
	for _, d := range diags {
		if d.IsError() {
			errs++
		} else {
			warns++
		}
	}
	return errs, warns
}

// WithCode filters diags down to one code.
func WithCode(diags []Diagnostic, code string) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}
