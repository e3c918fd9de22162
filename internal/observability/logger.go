package observability

import "github.com/t-lnarr/plant/internal/logging"

// Package-level cached logger instance for efficiency.
// All logging in this package should use this variable.
var log = logging.ForService("observability")
