package logging

import "github.com/rs/zerolog"

// Component returns log tagged with a component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
