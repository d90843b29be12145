package weavelog

// Option configures a Logger at construction time.
type Option func(*config)

type config struct {
	filename   string
	maxSize    int
	maxBackups int
	maxAge     int
	compress   bool

	level        Level
	enableStdout bool
	enableFile   bool
	timeFormat   string
}

func defaultConfig() *config {
	return &config{
		filename:   "./logs/weave.log",
		maxSize:    50,
		maxBackups: 3,
		maxAge:     14,
		compress:   true,

		level: INFO,
		// weave is a CLI proxy process; stdout is the default sink so it
		// behaves well under systemd/journald and container log capture.
		// File output is opt-in via WithFilePath.
		enableStdout: true,
		enableFile:   false,
		timeFormat:   "2006-01-02T15:04:05.000Z07:00",
	}
}

// WithFilePath routes log output to a rotating file at path, in addition to
// whatever stdout setting is in effect.
func WithFilePath(path string) Option {
	return func(c *config) {
		c.filename = path
		c.enableFile = true
	}
}

// WithMaxSize sets the megabyte threshold before the log file rotates.
func WithMaxSize(mb int) Option {
	return func(c *config) { c.maxSize = mb }
}

// WithMaxBackups sets how many rotated files are retained.
func WithMaxBackups(n int) Option {
	return func(c *config) { c.maxBackups = n }
}

// WithMaxAge sets how many days a rotated file is retained.
func WithMaxAge(days int) Option {
	return func(c *config) { c.maxAge = days }
}

// WithLevel sets the minimum level that reaches any sink.
func WithLevel(level Level) Option {
	return func(c *config) { c.level = level }
}

// WithStdout toggles the stdout sink.
func WithStdout(enable bool) Option {
	return func(c *config) { c.enableStdout = enable }
}
