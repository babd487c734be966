package constants

// Tool name and related constants
const (
	// ToolName is the name of this tool
	ToolName = "sidequest"

	// ConfigFileName is the default config file name
	ConfigFileName = ".sidequest.yaml"

	// EnvVarPrefix is the prefix for environment variables
	EnvVarPrefix = "SIDEQUEST"
)

// Engine name constants
const (
	EngineDebugArtifacts = "debug-artifacts"
	EnginePatternLint    = "pattern-lint"
	EngineTypeScript     = "typescript"
	EngineESLint         = "eslint"
)

// SupportedExtensions are the JavaScript/TypeScript file extensions the
// built-in engines analyze
var SupportedExtensions = []string{
	".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".mts", ".cts",
}

// DefaultExcludeDirs are directory names skipped during file collection
var DefaultExcludeDirs = []string{
	"node_modules",
	"vendor",
	"dist",
	"build",
	"out",
	".output",
	".next",
	".nuxt",
	".vercel",
	".cache",
	".turbo",
	"coverage",
	".git",
}
