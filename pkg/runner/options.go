package runner

import "log/slog"

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures the IOHandler. The default is a TextHandler on stdio.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithBanner sets a message printed once before the first prompt.
func WithBanner(banner string) Option {
	return func(r *Runner) {
		r.Banner = banner
	}
}
