package driven

// ConfigStore persists configuration key-value pairs.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value.
	GetString(key string) string

	// GetInt retrieves an integer configuration value.
	GetInt(key string) int

	// GetFloat retrieves a floating-point configuration value.
	GetFloat(key string) float64

	// GetBool retrieves a boolean configuration value.
	GetBool(key string) bool

	// GetStringSlice retrieves a string slice configuration value.
	GetStringSlice(key string) []string

	// Set stores a configuration value and persists immediately.
	Set(key string, value any) error

	// Delete removes a configuration value.
	Delete(key string) error

	// Load reloads configuration from the backing store.
	Load() error
}
