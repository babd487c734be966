package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/domain"
)

// dirCollector is a minimal FileCollector over a fixture directory
type dirCollector struct {
	extensions []string
}

func newDirCollector() *dirCollector {
	return &dirCollector{extensions: []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".mts", ".cts"}}
}

func (c *dirCollector) CollectSourceFiles(paths []string, _, _ []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && c.IsSupportedFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func (c *dirCollector) IsSupportedFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range c.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	return path
}

func TestDebugArtifactEngineFindsConsoleCalls(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "app.js", `function greet(name) {
  console.log("hello", name);
  return name;
}
`)

	engine := NewDebugArtifactEngine(newDirCollector(), 1, true, domain.SeverityWarn)
	violations, err := engine.Analyze(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(violations) != 1 {
		t.Fatalf("Expected 1 violation, got %d", len(violations))
	}
	v := violations[0]
	if v.Rule != RuleConsoleCall {
		t.Errorf("Expected %s, got %s", RuleConsoleCall, v.Rule)
	}
	if v.Line != 2 {
		t.Errorf("Expected line 2, got %d", v.Line)
	}
	if v.Severity != domain.SeverityWarn {
		t.Errorf("Expected warn severity, got %s", v.Severity)
	}
	if v.Source != "debug-artifacts" {
		t.Errorf("Unexpected source %s", v.Source)
	}
	if !strings.Contains(v.Message, "console.log") {
		t.Errorf("Expected the callee in the message, got %q", v.Message)
	}
}

func TestDebugArtifactEngineFindsDebuggerStatements(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "app.ts", `export function compute(x: number): number {
  debugger;
  return x * 2;
}
`)

	engine := NewDebugArtifactEngine(newDirCollector(), 1, true, domain.SeverityWarn)
	violations, err := engine.Analyze(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(violations) != 1 {
		t.Fatalf("Expected 1 violation, got %d", len(violations))
	}
	v := violations[0]
	if v.Rule != RuleDebuggerStatement {
		t.Errorf("Expected %s, got %s", RuleDebuggerStatement, v.Rule)
	}
	// Debugger statements are always errors, regardless of console severity
	if v.Severity != domain.SeverityError {
		t.Errorf("Expected error severity, got %s", v.Severity)
	}
}

func TestDebugArtifactEngineIgnoresNonConsoleCalls(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "app.js", `logger.info("hello");
fetch("/api");
const consoleish = { log() {} };
consoleish.log();
`)

	engine := NewDebugArtifactEngine(newDirCollector(), 1, true, domain.SeverityWarn)
	violations, err := engine.Analyze(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("Expected no violations, got %v", violations)
	}
}

func TestDebugArtifactEngineRuleFilter(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "app.js", `console.log("a");
debugger;
`)

	engine := NewDebugArtifactEngine(newDirCollector(), 1, true, domain.SeverityWarn)

	violations, err := engine.Analyze(context.Background(), dir,
		map[string]string{"rule": RuleDebuggerStatement})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(violations) != 1 || violations[0].Rule != RuleDebuggerStatement {
		t.Errorf("Expected only debugger findings, got %v", violations)
	}
}

func TestDebugArtifactEngineParsesTSX(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "widget.tsx", `export function Widget({ items }: Props) {
  console.debug(items);
  return <ul>{items.map((i) => <li key={i}>{i}</li>)}</ul>;
}
`)

	engine := NewDebugArtifactEngine(newDirCollector(), 1, true, domain.SeverityInfo)
	violations, err := engine.Analyze(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("Expected 1 violation in TSX source, got %d", len(violations))
	}
	if violations[0].Severity != domain.SeverityInfo {
		t.Errorf("Expected configured severity, got %s", violations[0].Severity)
	}
}

func TestDebugArtifactEngineInvalidSeverityFallsBack(t *testing.T) {
	engine := NewDebugArtifactEngine(newDirCollector(), 1, true, "fatal")
	if engine.consoleSeverity != domain.SeverityWarn {
		t.Errorf("Expected warn fallback, got %s", engine.consoleSeverity)
	}
}

func TestDebugArtifactEngineHonorsContext(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "app.js", `console.log("a");`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewDebugArtifactEngine(newDirCollector(), 1, true, domain.SeverityWarn)
	if _, err := engine.Analyze(ctx, dir, nil); err == nil {
		t.Error("Expected a cancelled context to abort the run")
	}
}
