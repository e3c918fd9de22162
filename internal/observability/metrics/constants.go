// Package metrics provides constants used across metric definitions.
package metrics

import "time"

// Label value constants used for metric labels.
const (
	// LabelSuccess marks an operation that completed.
	LabelSuccess = "success"
	// LabelError marks an operation that failed.
	LabelError = "error"
	// LabelRejected marks a command refused by the admin gate.
	LabelRejected = "rejected"
)

// Histogram bucket configuration constants.
const (
	// BucketStart100ms is the starting bucket for 100ms histograms (100ms to ~100s range).
	BucketStart100ms = 0.1
	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2
	// BucketCount10 defines 10 exponential buckets.
	BucketCount10 = 10
)

// Time constants.
const (
	// ShutdownTimeout is the timeout for graceful shutdown operations.
	ShutdownTimeout = 5 * time.Second
)
