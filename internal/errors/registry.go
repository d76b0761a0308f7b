package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// Error codes used across the engine.
const (
	CodeLoadFailed         = "E101"
	CodeNoHandler          = "E102"
	CodeDuplicateStatic    = "E103"
	CodeDuplicateDynamic   = "E104"
	CodeMiddlewareNotFound = "E105"
	CodeNotRoutable        = "E106"
	CodeNoMiddlewareFunc   = "E107"
	CodeMiddlewareReplaced = "E108"
	CodeHandlerFailed      = "E110"
	CodeHandlerPanic       = "E111"
	CodeConfigInvalid      = "E120"
	CodeConfigNotFound     = "E121"
	CodeInvalidPort        = "E122"
	CodeWatchFailed        = "E130"
	CodePluginOpen         = "E140"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Discovery Errors (E101-E109)
	// ============================================

	CodeLoadFailed: {
		Category: CategoryDiscovery,
		Message:  "Module failed to load",
		Detail:   "The module provider returned an error or panicked while loading the module. The route was skipped; discovery continued.",
		DocURL:   "https://sylph.dev/docs/errors/E101",
	},
	CodeNoHandler: {
		Category: CategoryDiscovery,
		Message:  "Module exports no handler",
		Detail:   "Route modules must export a Handler. The route was logged but not bound.",
		DocURL:   "https://sylph.dev/docs/errors/E102",
	},
	CodeDuplicateStatic: {
		Category: CategoryDiscovery,
		Message:  "Duplicate static route",
		Detail:   "Two modules resolved to the same method and literal path. The last one registered wins.",
		DocURL:   "https://sylph.dev/docs/errors/E103",
	},
	CodeDuplicateDynamic: {
		Category: CategoryDiscovery,
		Message:  "Duplicate dynamic route",
		Detail:   "Two modules resolved to the same method and parameterized path. The last one registered wins.",
		DocURL:   "https://sylph.dev/docs/errors/E104",
	},
	CodeNotRoutable: {
		Category: CategoryDiscovery,
		Message:  "Path is not a route",
		Detail:   "The first path segment must be get, post, put, delete, patch or middleware, and the file must carry a recognized extension.",
		DocURL:   "https://sylph.dev/docs/errors/E106",
	},
	CodeNoMiddlewareFunc: {
		Category: CategoryDiscovery,
		Message:  "Middleware module exports nothing to use",
		Detail:   "Modules under middleware/ must export Use. The module was skipped.",
		DocURL:   "https://sylph.dev/docs/errors/E107",
	},
	CodeMiddlewareReplaced: {
		Category: CategoryDiscovery,
		Message:  "Middleware name registered twice",
		Detail:   "A middleware with this name already existed and was replaced by the newer registration.",
		DocURL:   "https://sylph.dev/docs/errors/E108",
	},

	// ============================================
	// Resolution Errors (E105)
	// ============================================

	CodeMiddlewareNotFound: {
		Category: CategoryResolution,
		Message:  "Middleware not found",
		Detail:   "A route references a middleware name that is not in the registry. Check the file name under middleware/.",
		DocURL:   "https://sylph.dev/docs/errors/E105",
	},

	// ============================================
	// Request Errors (E110-E119)
	// ============================================

	CodeHandlerFailed: {
		Category: CategoryRequest,
		Message:  "Request failed",
		Detail:   "A middleware or handler returned an error.",
		DocURL:   "https://sylph.dev/docs/errors/E110",
	},
	CodeHandlerPanic: {
		Category: CategoryRequest,
		Message:  "Handler panicked",
		Detail:   "A middleware or handler panicked. The panic was recovered at the chain boundary.",
		DocURL:   "https://sylph.dev/docs/errors/E111",
	},

	// ============================================
	// Config Errors (E120-E129)
	// ============================================

	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be parsed.",
		DocURL:   "https://sylph.dev/docs/errors/E120",
	},
	CodeConfigNotFound: {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "The configuration file passed explicitly does not exist.",
		DocURL:   "https://sylph.dev/docs/errors/E121",
	},
	CodeInvalidPort: {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "Port must be between 0 and 65535.",
		DocURL:   "https://sylph.dev/docs/errors/E122",
	},

	// ============================================
	// CLI / Dev Errors (E130-E149)
	// ============================================

	CodeWatchFailed: {
		Category: CategoryCLI,
		Message:  "File watcher failed",
		Detail:   "The handler directory could not be watched for changes.",
		DocURL:   "https://sylph.dev/docs/errors/E130",
	},
	CodePluginOpen: {
		Category: CategoryCLI,
		Message:  "Plugin could not be opened",
		Detail:   "The module is not a valid Go plugin for this build.",
		DocURL:   "https://sylph.dev/docs/errors/E140",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
