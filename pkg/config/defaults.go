package config

// Evolution defaults.
const (
	DefaultCheckLevel = 1
	MaxCheckLevel     = 2
)

// Output defaults.
const (
	DefaultWrapWidth        = 80
	DefaultIncludeAncestors = false
	DefaultCompression      = "none"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = LogFormatText
)

// Telemetry defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultSampleRatio  = 0.0
	DefaultMetricsFile  = ""
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)
