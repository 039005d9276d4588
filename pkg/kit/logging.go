package kit

import "go.uber.org/zap"

// NewLogger builds a JSON production logger tagged with the service name.
// Debug enables the development level without switching encoders.
func NewLogger(service string, debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.InitialFields = map[string]any{"service": service}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
