// Package constants provides shared constants used throughout the publisher.
// This includes timeouts, limits, file permissions, and the defaults for
// document discovery and wiki pagination.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for requests to the wiki REST API
	DefaultHTTPTimeout = 30 * time.Second

	// ConvertTimeout bounds a single external converter invocation
	ConvertTimeout = 2 * time.Minute

	// RetryBackoff is the base backoff duration for transport retries
	RetryBackoff = 500 * time.Millisecond

	// MaxRetryBackoff is the maximum backoff duration for transport retries
	MaxRetryBackoff = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// FilePermissions is the default permission for created log files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxRetries is the number of extra attempts after a transport failure
	MaxRetries = 2

	// PageBatchSize is the number of pages fetched per listing request
	PageBatchSize = 25

	// DefaultParallelism bounds concurrent document processing
	DefaultParallelism = 8

	// MaxTitleLength is the longest page title the wiki accepts
	MaxTitleLength = 255
)

// Wiki constants
const (
	// ServiceName identifies the remote store in errors and logs
	ServiceName = "confluence"

	// ContentPath is the REST content endpoint relative to the base URL
	ContentPath = "/rest/api/content"

	// DisplayPath is the human-facing page prefix relative to the base URL
	DisplayPath = "/display"

	// LabelPrefix is the label namespace used for document tags
	LabelPrefix = "global"
)

// Document discovery defaults
var (
	// DocumentExtensions are the file extensions picked up by the walker
	DocumentExtensions = []string{".adoc", ".asciidoc", ".md", ".markdown"}
)

// Environment and configuration
const (
	// EnvPrefix is the prefix for environment variable overrides
	EnvPrefix = "A2C"

	// ConfigFileName is the config file base name looked up in home and cwd
	ConfigFileName = ".a2c"

	// AsciidoctorBinary is the default converter executable
	AsciidoctorBinary = "asciidoctor"
)
