package pipeline

import (
	"sync"

	"github.com/YuminosukeSato/tabfit/pkg/log"
)

var (
	providerMu     sync.RWMutex
	globalProvider log.LoggerProvider
)

// SetLoggerProvider sets the provider used by Train when no WithLogger
// option is given. Passing nil disables pipeline logging.
func SetLoggerProvider(p log.LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	globalProvider = p
}

func defaultLogger() log.Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	if globalProvider == nil {
		return log.NopLogger()
	}
	return globalProvider.GetLoggerWithName("pipeline")
}

// Option configures Train.
type Option func(*trainConfig)

type trainConfig struct {
	rcond  float64
	logger log.Logger
}

// WithRcond sets the relative singular value cutoff of the least squares
// solve. Zero keeps the default eps * max(n_samples, n_features).
func WithRcond(rcond float64) Option {
	return func(c *trainConfig) {
		c.rcond = rcond
	}
}

// WithLogger sets the logger for training events.
func WithLogger(l log.Logger) Option {
	return func(c *trainConfig) {
		c.logger = l
	}
}
