package amt

// Logger is the minimal structured logging surface the device reports
// through. *slog.Logger satisfies it; a nil logger keeps the device silent.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds the device configuration.
type Config struct {
	// Logger receives connection and command diagnostics (optional)
	Logger Logger

	// PurgeLimit bounds the stale-input drain loop. The reference tool
	// drains unboundedly and relies on the transport read timeout alone;
	// the bound here is a deliberate addition so a transport that never
	// reports an idle read cannot hang a transaction.
	PurgeLimit int
}

// DefaultPurgeLimit is the default bound on the stale-input drain loop.
const DefaultPurgeLimit = 4096

func defaultConfig() Config {
	return Config{
		PurgeLimit: DefaultPurgeLimit,
	}
}

// Option is a functional option for configuring the Device.
type Option func(*Config)

// WithLogger sets a logger for device operations.
//
// Example:
//
//	dev, err := amt.Open(bridge, amt.WithLogger(slog.Default()))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithPurgeLimit overrides the bound on the stale-input drain loop.
func WithPurgeLimit(limit int) Option {
	return func(c *Config) {
		if limit > 0 {
			c.PurgeLimit = limit
		}
	}
}
