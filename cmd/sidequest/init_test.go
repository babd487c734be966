package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitCommand_BasicConfigCreation(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".sidequest.yaml")

	cmd := initCmd()
	cmd.SetArgs([]string{"--config", configPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	contentStr := string(content)
	expectedSections := []string{
		"analysis:",
		"engines:",
		"scheduler:",
		"watch:",
		"storage:",
		"output:",
		"dedup_strategy",
	}
	for _, section := range expectedSections {
		if !strings.Contains(contentStr, section) {
			t.Errorf("Config file missing expected section: %s", section)
		}
	}
}

func TestInitCommand_RefusesOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".sidequest.yaml")
	if err := os.WriteFile(configPath, []byte("existing: true\n"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	cmd := initCmd()
	cmd.SetArgs([]string{"--config", configPath})
	if err := cmd.Execute(); err == nil {
		t.Fatal("Expected error without --force")
	}

	content, _ := os.ReadFile(configPath)
	if string(content) != "existing: true\n" {
		t.Error("Existing file must not be modified")
	}
}

func TestInitCommand_ForceOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".sidequest.yaml")
	if err := os.WriteFile(configPath, []byte("existing: true\n"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	cmd := initCmd()
	cmd.SetArgs([]string{"--config", configPath, "--force"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}
	if string(content) == "existing: true\n" {
		t.Error("Expected the file to be overwritten")
	}
}

func TestInitCommand_Minimal(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".sidequest.yaml")

	cmd := initCmd()
	cmd.SetArgs([]string{"--config", configPath, "--minimal"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	full, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	fullPath := filepath.Join(tmpDir, "full.yaml")
	cmd = initCmd()
	cmd.SetArgs([]string{"--config", fullPath})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	fullContent, err := os.ReadFile(fullPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	if len(full) >= len(fullContent) {
		t.Error("Minimal config should be smaller than the full template")
	}
}

func TestInitCommand_MissingDirectory(t *testing.T) {
	cmd := initCmd()
	cmd.SetArgs([]string{"--config", "/nonexistent/dir/.sidequest.yaml"})
	if err := cmd.Execute(); err == nil {
		t.Error("Expected error for missing parent directory")
	}
}
