package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy: lists trimmed and deduped,
// zero values replaced by the shipped defaults, then sanity-checked.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Reddit.Subreddits = trimList(out.Reddit.Subreddits)
	out.Feeds.URLs = trimList(out.Feeds.URLs)
	out.Filter.Keywords = trimList(out.Filter.Keywords)

	// ---- Defaults ----

	if out.Reddit.UserAgent == "" {
		out.Reddit.UserAgent = "leadsniper-engine/1.0"
	}
	if out.Reddit.PollSeconds == 0 {
		out.Reddit.PollSeconds = 5
	}
	if out.Feeds.PollSeconds == 0 {
		out.Feeds.PollSeconds = 300
	}
	if out.Cooldown.TTLSeconds == 0 {
		out.Cooldown.TTLSeconds = 3600
	}
	if out.Cooldown.SweepSeconds == 0 {
		out.Cooldown.SweepSeconds = 300
	}
	if out.Classifier.Model == "" {
		out.Classifier.Model = "gpt-4o-mini"
	}
	if out.Classifier.MaxAttempts == 0 {
		out.Classifier.MaxAttempts = 3
	}
	if out.Classifier.BackoffMS == 0 {
		out.Classifier.BackoffMS = 1000
	}
	if out.Dispatch.MaxAttempts == 0 {
		out.Dispatch.MaxAttempts = 4
	}
	if out.Dispatch.BackoffMS == 0 {
		out.Dispatch.BackoffMS = 2000
	}
	if out.Supervisor.BackoffSeconds == 0 {
		out.Supervisor.BackoffSeconds = 10
	}
	if out.Supervisor.BackoffMaxSeconds == 0 {
		out.Supervisor.BackoffMaxSeconds = 300
	}

	// ---- Validation rules ----

	if !out.Reddit.Enabled && !out.Feeds.Enabled {
		res.addErr("no sources enabled: enable reddit monitoring, feed polling, or both")
	}
	if out.Reddit.Enabled && len(out.Reddit.Subreddits) == 0 {
		res.addErr("reddit.subreddits is required when reddit.enabled=true")
	}
	if out.Feeds.Enabled && len(out.Feeds.URLs) == 0 {
		res.addErr("feeds.urls is required when feeds.enabled=true")
	}
	if len(out.Filter.Keywords) == 0 {
		res.addErr("filter.keywords must have at least one trigger keyword")
	}

	if out.Reddit.PollSeconds < 0 {
		res.addErr("reddit.poll_seconds must be > 0")
	} else if out.Reddit.PollSeconds < 2 {
		res.addWarn("reddit.poll_seconds is very low (%d) and may hit rate limits.", out.Reddit.PollSeconds)
	}
	if out.Feeds.PollSeconds < 0 {
		res.addErr("feeds.poll_seconds must be > 0")
	} else if out.Feeds.PollSeconds < 60 {
		res.addWarn("feeds.poll_seconds is very low (%d); alert feeds rarely update that fast.", out.Feeds.PollSeconds)
	}
	if out.Cooldown.TTLSeconds < 0 {
		res.addErr("cooldown.ttl_seconds must be > 0")
	}
	if out.Classifier.MaxAttempts < 1 {
		res.addErr("classifier.max_attempts must be >= 1")
	}
	if out.Dispatch.MaxAttempts < 1 {
		res.addErr("dispatch.max_attempts must be >= 1")
	}
	if out.Supervisor.BackoffMaxSeconds < out.Supervisor.BackoffSeconds {
		res.addWarn("supervisor.backoff_max_seconds (%d) is below backoff_seconds (%d); the base wins.",
			out.Supervisor.BackoffMaxSeconds, out.Supervisor.BackoffSeconds)
	}

	return out, res
}
