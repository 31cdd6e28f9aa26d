package dice

import "go.uber.org/zap"

// LoggedSource wraps a Source and logs every draw at debug level.
type LoggedSource struct {
	src    Source
	logger *zap.Logger
	draws  int
}

// NewLoggedSource creates a LoggedSource that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger) *LoggedSource {
	return &LoggedSource{src: src, logger: logger}
}

// Float64 draws from the wrapped source and logs the value.
//
// Postcondition: result is logged; returns the wrapped source's value unchanged.
func (l *LoggedSource) Float64() float64 {
	v := l.src.Float64()
	l.draws++
	l.logger.Debug("crit draw",
		zap.Int("draw", l.draws),
		zap.Float64("value", v),
	)
	return v
}
