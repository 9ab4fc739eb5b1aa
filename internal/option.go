package internal

// Option mutates the engine settings before anything is wired.
type Option func(*settings)

// settings collects what the run modes need before construction.
type settings struct {
	config *Config
}

// WithConfig supplies the resolved configuration to a run mode.
func WithConfig(cfg *Config) Option {
	return func(s *settings) {
		s.config = cfg
	}
}
