package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Reactive Errors (R001-R019)
	// ============================================

	"R001": {
		Category:   CategoryReactive,
		Message:    "Stale handle",
		Suggestion: "The value, derived or effect was disposed; drop the handle after disposing it.",
	},
	"R002": {
		Category:   CategoryReactive,
		Message:    "Derived values are read-only",
		Suggestion: "Write to the values the derived computation reads instead.",
	},
	"R003": {
		Category: CategoryReactive,
		Message:  "Derived computation failed",
	},
	"R004": {
		Category:   CategoryReactive,
		Message:    "Circular dependency detected",
		Suggestion: "A derived computation read itself, directly or through another derived value.",
	},
	"R005": {
		Category: CategoryReactive,
		Message:  "Effect failed",
	},
	"R006": {
		Category: CategoryReactive,
		Message:  "Effect cleanup failed",
	},
	"R007": {
		Category:   CategoryReactive,
		Message:    "Effect storm budget exceeded",
		Suggestion: "An effect keeps writing values that re-trigger effects; check for write loops.",
	},
	"R008": {
		Category: CategoryReactive,
		Message:  "EndBatch called without a matching BeginBatch",
	},
	"R009": {
		Category:   CategoryReactive,
		Message:    "Value is not serializable",
		Suggestion: "Opaque references cannot leave the process; store plain values instead.",
	},

	// ============================================
	// UI Errors (R020-R039)
	// ============================================

	"R020": {
		Category: CategoryUI,
		Message:  "Unknown or removed node",
	},
	"R021": {
		Category:   CategoryUI,
		Message:    "Node is not finalized",
		Suggestion: "Finalize a reserved node before creating the effect that writes into it.",
	},
	"R022": {
		Category: CategoryUI,
		Message:  "Node already finalized",
	},
	"R023": {
		Category: CategoryUI,
		Message:  "Node is not a leaf",
	},
	"R024": {
		Category: CategoryUI,
		Message:  "Node is not a container",
	},
	"R025": {
		Category:   CategoryUI,
		Message:    "Render pass requested while a batch is open",
		Suggestion: "Call Render after the outermost EndBatch so the pass sees a fully drained graph.",
	},
	"R026": {
		Category: CategoryUI,
		Message:  "Node already has a parent",
	},
	"R027": {
		Category: CategoryUI,
		Message:  "Renderer already mounted",
	},
	"R028": {
		Category:   CategoryUI,
		Message:    "Node cannot contain itself",
		Suggestion: "The child is an ancestor of the target container.",
	},
	"R029": {
		Category:   CategoryUI,
		Message:    "No renderer mounted",
		Suggestion: "Call Mount with a renderer before the first render pass.",
	},

	// ============================================
	// Persistence Errors (R040-R049)
	// ============================================

	"R040": {
		Category: CategoryPersist,
		Message:  "Snapshot store failure",
	},
	"R041": {
		Category: CategoryPersist,
		Message:  "Snapshot not found",
	},

	// ============================================
	// Config Errors (R060-R069)
	// ============================================

	"R060": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Suggestion: "Check that rover.yaml is valid YAML",
	},
	"R061": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},
	"R062": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create rover.yaml or pass --config with its path",
	},

	// ============================================
	// CLI Errors (R080-R089)
	// ============================================

	"R080": {
		Category: CategoryCLI,
		Message:  "Command failed",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
