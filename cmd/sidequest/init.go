package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Invisible-Cities-Agency/SidequestCode-sub001/internal/config"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a sidequest configuration file",
		Long: `Generate a documented sidequest configuration file with sensible defaults.

By default, creates .sidequest.yaml in the current directory with full
documentation. Use --interactive for a guided setup wizard.

Examples:
  # Create .sidequest.yaml in current directory
  sidequest init

  # Custom output path
  sidequest init --config custom.yaml

  # Overwrite existing file
  sidequest init --force

  # Generate smaller config with essential options only
  sidequest init --minimal

  # Interactive setup wizard
  sidequest init --interactive
  sidequest init -i`,
		RunE: runInit,
	}

	cmd.Flags().StringP("config", "c", ".sidequest.yaml",
		"Output path for the config file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing config file")
	cmd.Flags().Bool("minimal", false,
		"Generate minimal config with essential options only")
	cmd.Flags().BoolP("interactive", "i", false,
		"Interactive setup wizard")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	minimal, _ := cmd.Flags().GetBool("minimal")
	interactive, _ := cmd.Flags().GetBool("interactive")

	var projectType = config.ProjectTypeGeneric
	var strictness = config.StrictnessStandard

	if interactive {
		var err error
		var interactiveConfigPath string
		projectType, strictness, interactiveConfigPath, err = runInteractiveSetup(configPath)
		if err != nil {
			return err
		}
		configPath = interactiveConfigPath
	}

	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
		}
	}

	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
	}

	var content string
	if minimal {
		content = config.GetMinimalConfigTemplate()
	} else {
		content = config.GetFullConfigTemplate(projectType, strictness)
	}

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	displayPath := configPath
	if absPath, err := filepath.Abs(configPath); err == nil {
		displayPath = absPath
	}
	fmt.Printf("Created %s\n", displayPath)
	fmt.Println("\nRun 'sidequest analyze .' to analyze your project.")

	return nil
}

func runInteractiveSetup(defaultConfigPath string) (config.ProjectType, config.Strictness, string, error) {
	fmt.Println()
	fmt.Println("sidequest Configuration Setup")
	fmt.Println("=============================")
	fmt.Println()

	// Project type selection
	projectTypes := []struct {
		Label string
		Value config.ProjectType
	}{
		{"Generic JavaScript/TypeScript", config.ProjectTypeGeneric},
		{"React/Next.js", config.ProjectTypeReact},
		{"Vue/Nuxt", config.ProjectTypeVue},
		{"Node.js Backend", config.ProjectTypeNodeBackend},
	}

	projectTemplates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }}",
		Inactive: "   {{ .Label | white }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}

	projectPrompt := promptui.Select{
		Label:     "What type of project is this?",
		Items:     projectTypes,
		Templates: projectTemplates,
	}

	projectIdx, _, err := projectPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("setup cancelled: %w", err)
	}
	projectType := projectTypes[projectIdx].Value

	// Strictness selection
	strictnessLevels := []struct {
		Label string
		Value config.Strictness
	}{
		{"Relaxed - fewer findings, longer lines allowed", config.StrictnessRelaxed},
		{"Standard - balanced defaults", config.StrictnessStandard},
		{"Strict - console calls are errors, crossover conflicts fail", config.StrictnessStrict},
	}

	strictnessTemplates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "\U0001F449 {{ .Label | cyan }}",
		Inactive: "   {{ .Label | white }}",
		Selected: "\U00002705 {{ .Label | green }}",
	}

	strictnessPrompt := promptui.Select{
		Label:     "How strict should analysis be?",
		Items:     strictnessLevels,
		Templates: strictnessTemplates,
	}

	strictnessIdx, _, err := strictnessPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("setup cancelled: %w", err)
	}
	strictness := strictnessLevels[strictnessIdx].Value

	// Config path prompt
	pathPrompt := promptui.Prompt{
		Label:   "Config file path",
		Default: defaultConfigPath,
	}
	configPath, err := pathPrompt.Run()
	if err != nil {
		return "", "", "", fmt.Errorf("setup cancelled: %w", err)
	}

	return projectType, strictness, configPath, nil
}
