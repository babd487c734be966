package main

import (
	"testing"
)

func TestAnalyzeCmd_FlagsExist(t *testing.T) {
	cmd := analyzeCmd()

	expectedFlags := []string{"format", "json", "details", "dedup", "config", "no-progress", "no-storage", "fail-on-crossover"}
	for _, flagName := range expectedFlags {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil {
			t.Errorf("Missing expected flag: --%s", flagName)
		}
	}
}

func TestAnalyzeCmd_ShortFlags(t *testing.T) {
	cmd := analyzeCmd()

	shortFlags := map[string]string{
		"f": "format",
		"d": "details",
		"c": "config",
	}

	for short, long := range shortFlags {
		flag := cmd.Flags().ShorthandLookup(short)
		if flag == nil {
			t.Errorf("Missing short flag -%s for --%s", short, long)
		}
	}
}

func TestCheckCmd_FlagsExist(t *testing.T) {
	cmd := checkCmd()

	expectedFlags := []string{"fail-on", "json", "config"}
	for _, flagName := range expectedFlags {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil {
			t.Errorf("Missing expected flag: --%s", flagName)
		}
	}
}

func TestCheckCmd_DefaultFailOn(t *testing.T) {
	cmd := checkCmd()

	flag := cmd.Flags().Lookup("fail-on")
	if flag == nil {
		t.Fatal("fail-on flag not found")
	}
	if flag.DefValue != "error" {
		t.Errorf("Expected default fail-on to be 'error', got '%s'", flag.DefValue)
	}
}

func TestWatchCmd_FlagsExist(t *testing.T) {
	cmd := watchCmd()

	expectedFlags := []string{"interval", "config", "quiet"}
	for _, flagName := range expectedFlags {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil {
			t.Errorf("Missing expected flag: --%s", flagName)
		}
	}
}

func TestCheckExitError(t *testing.T) {
	err := &CheckExitError{Code: 1, Message: "violations remain"}
	if err.Error() != "violations remain" {
		t.Errorf("Unexpected message: %s", err.Error())
	}
}
