package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		DataDir  string `yaml:"data_dir"`
		HTTPAddr string `yaml:"http_addr"` // empty disables the status server
		LogFile  string `yaml:"log_file"`  // empty logs to stdout only
	} `yaml:"app"`

	Reddit struct {
		Enabled     bool     `yaml:"enabled"`
		Subreddits  []string `yaml:"subreddits"`
		UserAgent   string   `yaml:"user_agent"`
		PollSeconds int      `yaml:"poll_seconds"` // cadence of the stream poll
	} `yaml:"reddit"`

	Feeds struct {
		Enabled     bool     `yaml:"enabled"`
		URLs        []string `yaml:"urls"`
		PollSeconds int      `yaml:"poll_seconds"`
	} `yaml:"feeds"`

	Filter struct {
		Keywords []string `yaml:"keywords"`
	} `yaml:"filter"`

	Cooldown struct {
		TTLSeconds   int `yaml:"ttl_seconds"`
		SweepSeconds int `yaml:"sweep_seconds"`
	} `yaml:"cooldown"`

	Classifier struct {
		Model       string `yaml:"model"`
		MaxAttempts int    `yaml:"max_attempts"`
		BackoffMS   int    `yaml:"backoff_ms"`
	} `yaml:"classifier"`

	Dispatch struct {
		MaxAttempts int `yaml:"max_attempts"`
		BackoffMS   int `yaml:"backoff_ms"`
	} `yaml:"dispatch"`

	Supervisor struct {
		BackoffSeconds    int `yaml:"backoff_seconds"`
		BackoffMaxSeconds int `yaml:"backoff_max_seconds"`
	} `yaml:"supervisor"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}

// Duration views over the raw yaml ints.

func (c Config) RedditPoll() time.Duration {
	return time.Duration(c.Reddit.PollSeconds) * time.Second
}
func (c Config) FeedPoll() time.Duration {
	return time.Duration(c.Feeds.PollSeconds) * time.Second
}
func (c Config) CooldownTTL() time.Duration {
	return time.Duration(c.Cooldown.TTLSeconds) * time.Second
}
func (c Config) CooldownSweep() time.Duration {
	return time.Duration(c.Cooldown.SweepSeconds) * time.Second
}
func (c Config) ClassifierBackoff() time.Duration {
	return time.Duration(c.Classifier.BackoffMS) * time.Millisecond
}
func (c Config) DispatchBackoff() time.Duration {
	return time.Duration(c.Dispatch.BackoffMS) * time.Millisecond
}
func (c Config) SupervisorBackoff() time.Duration {
	return time.Duration(c.Supervisor.BackoffSeconds) * time.Second
}
func (c Config) SupervisorBackoffMax() time.Duration {
	return time.Duration(c.Supervisor.BackoffMaxSeconds) * time.Second
}
