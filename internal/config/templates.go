package config

import "strconv"

// ProjectType represents the type of JavaScript/TypeScript project
type ProjectType string

const (
	ProjectTypeGeneric     ProjectType = "generic"
	ProjectTypeReact       ProjectType = "react"
	ProjectTypeVue         ProjectType = "vue"
	ProjectTypeNodeBackend ProjectType = "node"
)

// Strictness represents the analysis strictness level
type Strictness string

const (
	StrictnessRelaxed  Strictness = "relaxed"
	StrictnessStandard Strictness = "standard"
	StrictnessStrict   Strictness = "strict"
)

// ProjectPreset holds file scope presets for different project types
type ProjectPreset struct {
	IncludePatterns []string
	ExcludePatterns []string
}

// StrictnessPreset holds behaviour presets for different strictness levels
type StrictnessPreset struct {
	ConsoleSeverity         string
	MaxLineLength           int
	FailOnCriticalCrossover bool
}

// GetProjectPresets returns presets for different project types
func GetProjectPresets() map[ProjectType]ProjectPreset {
	return map[ProjectType]ProjectPreset{
		ProjectTypeGeneric: {
			IncludePatterns: []string{
				"**/*.js",
				"**/*.ts",
				"**/*.jsx",
				"**/*.tsx",
			},
			ExcludePatterns: []string{
				"**/node_modules/**",
				"**/dist/**",
				"**/build/**",
				"**/*.min.js",
				"**/*.bundle.js",
			},
		},
		ProjectTypeReact: {
			IncludePatterns: []string{
				"**/*.js",
				"**/*.ts",
				"**/*.jsx",
				"**/*.tsx",
			},
			ExcludePatterns: []string{
				"**/node_modules/**",
				"**/dist/**",
				"**/build/**",
				"**/.next/**",
				"**/coverage/**",
				"**/*.min.js",
				"**/*.bundle.js",
			},
		},
		ProjectTypeVue: {
			IncludePatterns: []string{
				"**/*.js",
				"**/*.ts",
				"**/*.jsx",
				"**/*.tsx",
				"**/*.vue",
			},
			ExcludePatterns: []string{
				"**/node_modules/**",
				"**/dist/**",
				"**/build/**",
				"**/.nuxt/**",
				"**/coverage/**",
				"**/*.min.js",
				"**/*.bundle.js",
			},
		},
		ProjectTypeNodeBackend: {
			IncludePatterns: []string{
				"**/*.js",
				"**/*.ts",
				"**/*.mjs",
				"**/*.cjs",
			},
			ExcludePatterns: []string{
				"**/node_modules/**",
				"**/dist/**",
				"**/build/**",
				"**/test/**",
				"**/tests/**",
				"**/__tests__/**",
				"**/*.min.js",
				"**/*.bundle.js",
			},
		},
	}
}

// GetStrictnessPresets returns presets for different strictness levels
func GetStrictnessPresets() map[Strictness]StrictnessPreset {
	return map[Strictness]StrictnessPreset{
		StrictnessRelaxed: {
			ConsoleSeverity:         "info",
			MaxLineLength:           140,
			FailOnCriticalCrossover: false,
		},
		StrictnessStandard: {
			ConsoleSeverity:         "warn",
			MaxLineLength:           120,
			FailOnCriticalCrossover: false,
		},
		StrictnessStrict: {
			ConsoleSeverity:         "error",
			MaxLineLength:           100,
			FailOnCriticalCrossover: true,
		},
	}
}

// GetFullConfigTemplate returns the documented config template as YAML
func GetFullConfigTemplate(projectType ProjectType, strictness Strictness) string {
	projectPresets := GetProjectPresets()
	strictnessPresets := GetStrictnessPresets()

	preset := projectPresets[projectType]
	strict := strictnessPresets[strictness]

	includePatterns := formatYAMLList(preset.IncludePatterns)
	excludePatterns := formatYAMLList(preset.ExcludePatterns)

	return `# sidequest configuration

# ==============================================================================
# ANALYSIS CYCLE
# ==============================================================================
analysis:
  # Deduplication strategy for findings within one cycle:
  # exact (file+line+code+source), location (file+line),
  # similar (file+category+code prefix), none
  dedup_strategy: exact

  # Fail the cycle when engines report conflicting findings at one position
  fail_on_critical_crossover: ` + strconv.FormatBool(strict.FailOnCriticalCrossover) + `

  # Upper bound for one full engine run, in milliseconds
  cycle_timeout_ms: 300000

  # File patterns to include (glob patterns)
  include_patterns:
` + includePatterns + `

  # File patterns to exclude (glob patterns)
  exclude_patterns:
` + excludePatterns + `

  # Honor .gitignore entries during file collection
  respect_gitignore: true

# ==============================================================================
# BUILT-IN ENGINES
# ==============================================================================
engines:
  # Flags console.* calls and debugger statements
  debug_artifacts:
    enabled: true
    priority: 10
    # Severity for console.* calls: error, warn, info
    console_severity: ` + strict.ConsoleSeverity + `

  # Flags annotation markers and overlong lines
  pattern_lint:
    enabled: true
    priority: 20
    # Lines longer than this many bytes are flagged (0 disables)
    max_line_length: ` + strconv.Itoa(strict.MaxLineLength) + `
    markers: [TODO, FIXME, HACK, XXX]

# ==============================================================================
# RULE SCHEDULER
# ==============================================================================
scheduler:
  # Polling interval between rule check cycles, in milliseconds (>= 1000)
  default_frequency_ms: 30000

  # Maximum concurrently executing rule checks (>= 1)
  max_concurrent_checks: 3

# ==============================================================================
# WATCH MODE
# ==============================================================================
watch:
  # Delay between analysis cycles, in milliseconds (>= 1000)
  interval_ms: 30000

  # Print a status line after each cycle
  display: true

# ==============================================================================
# PERSISTENCE
# ==============================================================================
storage:
  enabled: true
  # Sqlite database location (":memory:" for ephemeral runs)
  path: .sidequest/violations.db
  # Days before resolved findings and metrics are cleaned up
  retention_days: 30

# ==============================================================================
# OUTPUT
# ==============================================================================
output:
  # Output format: text, json, yaml, csv
  format: text
  # Show the per-violation breakdown
  show_details: false
`
}

// GetMinimalConfigTemplate returns a minimal config template
func GetMinimalConfigTemplate() string {
	return `# sidequest configuration (minimal)

analysis:
  dedup_strategy: exact
  include_patterns: ["**/*.js", "**/*.ts", "**/*.jsx", "**/*.tsx"]
  exclude_patterns: ["**/node_modules/**", "**/dist/**"]

storage:
  path: .sidequest/violations.db
`
}

// formatYAMLList formats a string slice as an indented YAML list
func formatYAMLList(items []string) string {
	result := ""
	for _, item := range items {
		result += `    - "` + item + `"` + "\n"
	}
	return result
}
