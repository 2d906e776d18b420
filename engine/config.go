package engine

// Config controls a Runtime's determinism knobs and limits. Zero value
// is usable; New applies the defaults below before options run.
type Config struct {
	StepLimit int
	Seed      uint64
	BaseURL   string
}

// Option configures a Config at construction time.
type Option func(*Config)

// WithStepLimit overrides the scheduler's default step budget (10000)
// for Flush/AdvanceTime/RunDueTimers calls. 0 means no limit.
func WithStepLimit(n int) Option {
	return func(c *Config) { c.StepLimit = n }
}

// WithSeed pins Math.random()'s backing PRNG to a reproducible stream.
func WithSeed(seed uint64) Option {
	return func(c *Config) { c.Seed = seed }
}

// WithBaseURL sets the document's URL, used to resolve relative anchor
// hrefs during navigation default actions.
func WithBaseURL(u string) Option {
	return func(c *Config) { c.BaseURL = u }
}

func defaultConfig() Config {
	return Config{StepLimit: 10000, BaseURL: "about:blank"}
}
