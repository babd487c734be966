// Package engine provides the built-in analysis engines shipped with the
// binary. Both are deliberately shallow: deep analysis belongs to external
// engines consumed through the same contract.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
)

// Rules reported by the debug artifact engine
const (
	RuleConsoleCall       = "console-call"
	RuleDebuggerStatement = "debugger-statement"
)

// DebugArtifactEngine finds leftover debug artifacts (console calls and
// debugger statements) in JavaScript/TypeScript sources via tree-sitter.
type DebugArtifactEngine struct {
	name            string
	priority        int
	enabled         bool
	consoleSeverity domain.Severity
	files           domain.FileCollector
}

// NewDebugArtifactEngine creates the debug artifact engine.
// consoleSeverity is the severity assigned to console.* calls; debugger
// statements are always errors.
func NewDebugArtifactEngine(files domain.FileCollector, priority int, enabled bool, consoleSeverity domain.Severity) *DebugArtifactEngine {
	if !consoleSeverity.IsValid() {
		consoleSeverity = domain.SeverityWarn
	}
	return &DebugArtifactEngine{
		name:            "debug-artifacts",
		priority:        priority,
		enabled:         enabled,
		consoleSeverity: consoleSeverity,
		files:           files,
	}
}

// Name implements domain.Engine
func (e *DebugArtifactEngine) Name() string { return e.name }

// Priority implements domain.Engine
func (e *DebugArtifactEngine) Priority() int { return e.priority }

// Enabled implements domain.Engine
func (e *DebugArtifactEngine) Enabled() bool { return e.enabled }

// Analyze parses every collected file and reports console calls and
// debugger statements. opts["rule"] restricts the run to a single rule.
func (e *DebugArtifactEngine) Analyze(ctx context.Context, targetPath string, opts map[string]string) ([]domain.Violation, error) {
	files, err := e.files.CollectSourceFiles([]string{targetPath}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to collect source files: %w", err)
	}

	ruleFilter := opts["rule"]
	var violations []domain.Violation
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := e.analyzeFile(ctx, file, ruleFilter)
		if err != nil {
			// An unparsable file is skipped, not a failed engine run
			continue
		}
		violations = append(violations, found...)
	}
	return violations, nil
}

// analyzeFile parses one file and walks its tree for debug artifacts
func (e *DebugArtifactEngine) analyzeFile(ctx context.Context, path, ruleFilter string) ([]domain.Violation, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(languageFor(path))
	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var violations []domain.Violation
	walkTree(tree.RootNode(), func(node *sitter.Node) {
		switch node.Type() {
		case "call_expression":
			if ruleFilter != "" && ruleFilter != RuleConsoleCall {
				return
			}
			callee := node.ChildByFieldName("function")
			if callee == nil || !isConsoleMember(callee, source) {
				return
			}
			violations = append(violations, domain.Violation{
				File:          path,
				Line:          int(node.StartPoint().Row) + 1,
				Column:        int(node.StartPoint().Column) + 1,
				Code:          snippet(node, source),
				Category:      domain.CategoryDebug,
				Severity:      e.consoleSeverity,
				Source:        e.name,
				Rule:          RuleConsoleCall,
				Message:       fmt.Sprintf("leftover %s call", callee.Content(source)),
				FixSuggestion: "remove the console call or route it through a logger",
			})
		case "debugger_statement":
			if ruleFilter != "" && ruleFilter != RuleDebuggerStatement {
				return
			}
			violations = append(violations, domain.Violation{
				File:          path,
				Line:          int(node.StartPoint().Row) + 1,
				Column:        int(node.StartPoint().Column) + 1,
				Code:          snippet(node, source),
				Category:      domain.CategoryDebug,
				Severity:      domain.SeverityError,
				Source:        e.name,
				Rule:          RuleDebuggerStatement,
				Message:       "debugger statement must not be committed",
				FixSuggestion: "delete the debugger statement",
			})
		}
	})
	return violations, nil
}

// languageFor selects the tree-sitter grammar by file extension. The tsx
// grammar parses both TypeScript and TSX.
func languageFor(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// walkTree visits every named node depth-first
func walkTree(node *sitter.Node, visit func(*sitter.Node)) {
	visit(node)
	for i := 0; i < int(node.NamedChildCount()); i++ {
		walkTree(node.NamedChild(i), visit)
	}
}

// isConsoleMember reports whether the callee is a console.* member access
func isConsoleMember(callee *sitter.Node, source []byte) bool {
	if callee.Type() != "member_expression" {
		return false
	}
	object := callee.ChildByFieldName("object")
	return object != nil && object.Content(source) == "console"
}

// snippet returns the node's source text, truncated to one line
func snippet(node *sitter.Node, source []byte) string {
	text := node.Content(source)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	return text
}
