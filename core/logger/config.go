package logger

// Config holds configuration for the logger.
type Config struct {
	// Level is the minimum level to log (debug, info, warn, error).
	Level string `mapstructure:"level" default:"info"`
	// Format is the log encoding (json, console).
	Format string `mapstructure:"format" default:"json"`
	// Output is a file path, stdout or stderr. Empty keeps zap's default.
	Output string `mapstructure:"output" default:""`
}
