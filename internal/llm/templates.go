package llm

import "fmt"

func BuildSkillContent() string {
	return `# Blueprint Skill

The architecture of this repository is described in blueprint TOML
documents. Read them through blueprint instead of grepping the IR files.

Workflow:
1. Run blueprint validate before and after editing any document.
2. Use blueprint inspect mod.<name> to see a module's schemas, funcs and pipeline.
3. Use blueprint closure <symbol> --full to get a self-contained slice of the IR.
4. Use blueprint refs <symbol> and blueprint trace <symbol> before renaming or removing a symbol.
5. Use blueprint diff-impl --mod mod.<name> to check the code still matches impl.bind declarations.
6. Record progress with blueprint status set <mod> <file> --state <state>.
`
}

func BuildContextBlock() string {
	return `# Blueprint Context

This repository keeps its architecture as blueprint documents.

- Manifest: blueprint.toml
- Skill instructions: .blueprint/skills/blueprint.md
- Validation state: .blueprint/state.json

Recommended command sequence:
1. blueprint doctor
2. blueprint validate
3. blueprint inspect mod.<name> (before changing a module)
`
}

func BuildRootAdapterBlock(agentName string) string {
	return fmt.Sprintf(`# Blueprint Integration (%s)

Use the blueprint documents before broad code reads.

1. Run blueprint doctor at session start.
2. Follow .blueprint/skills/blueprint.md.
3. Keep blueprint validate clean; it runs as a pre-commit hook.
4. Use CONTEXT.md for canonical paths.
`, agentName)
}

func BuildCursorRuleContent() string {
	return `---
description: Use blueprint documents for architecture navigation
alwaysApply: true
---

Run blueprint doctor first. Keep blueprint validate clean after edits.
Use .blueprint/skills/blueprint.md and CONTEXT.md as primary guidance.
Prefer blueprint inspect, closure, refs and trace over reading IR files directly.
`
}
