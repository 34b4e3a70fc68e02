package config

import (
	"fmt"
	"strings"
	"time"
)

func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Scoring.validate(); err != nil {
		return err
	}
	if err := c.Advisory.validate(); err != nil {
		return err
	}
	if err := c.Batch.validate(); err != nil {
		return err
	}
	if err := c.Sources.validate(); err != nil {
		return err
	}
	if err := c.Notify.validate(); err != nil {
		return err
	}
	if err := c.Scan.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(a.LogLevel) {
	case "debug", "info", "warn", "warning", "error", "":
		return nil
	default:
		return fmt.Errorf("app.log_level %q is not a known level", a.LogLevel)
	}
}

func (s *ScoringConfig) validate() error {
	if strings.TrimSpace(s.ProfilesPath) == "" {
		return fmt.Errorf("scoring.profiles_path cannot be empty")
	}
	if s.MinDataQuality <= 0 || s.MinDataQuality > 1 {
		return fmt.Errorf("scoring.min_data_quality must be in (0,1], got %v", s.MinDataQuality)
	}
	return nil
}

func (a *AdvisoryConfig) validate() error {
	if !a.Enabled {
		return nil
	}
	if strings.TrimSpace(a.APIURL) == "" {
		return fmt.Errorf("advisory.api_url required when advisory.enabled")
	}
	if strings.TrimSpace(a.Model) == "" {
		return fmt.Errorf("advisory.model required when advisory.enabled")
	}
	return nil
}

func (b *BatchConfig) validate() error {
	if b.RateLimitMin > b.RateLimitMax {
		return fmt.Errorf("batch.rate_limit_min %v exceeds batch.rate_limit_max %v", b.RateLimitMin, b.RateLimitMax)
	}
	if b.RateLimitInitial < b.RateLimitMin || b.RateLimitInitial > b.RateLimitMax {
		return fmt.Errorf("batch.rate_limit_initial %v outside [%v,%v]", b.RateLimitInitial, b.RateLimitMin, b.RateLimitMax)
	}
	if b.BudgetSeconds < 0 {
		return fmt.Errorf("batch.budget_seconds must be >= 0")
	}
	return nil
}

func (s *SourcesConfig) validate() error {
	seen := make(map[string]bool)
	check := func(id, section string) error {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			return fmt.Errorf("sources.%s: id cannot be empty", section)
		}
		if seen[id] {
			return fmt.Errorf("sources: duplicate id %s", id)
		}
		seen[id] = true
		return nil
	}
	for _, h := range s.HTTP {
		if err := check(h.ID, "http"); err != nil {
			return err
		}
		if strings.TrimSpace(h.URL) == "" {
			return fmt.Errorf("sources.http %s: url cannot be empty", h.ID)
		}
		if strings.TrimSpace(h.ValuePath) == "" {
			return fmt.Errorf("sources.http %s: value_path cannot be empty", h.ID)
		}
		if h.Max < h.Min {
			return fmt.Errorf("sources.http %s: max < min", h.ID)
		}
	}
	for _, st := range s.Static {
		if err := check(st.ID, "static"); err != nil {
			return err
		}
		if st.Value < 0 || st.Value > 100 {
			return fmt.Errorf("sources.static %s: value must be in [0,100]", st.ID)
		}
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	t := n.Telegram
	if !t.Enabled {
		return nil
	}
	if strings.TrimSpace(t.BotToken) == "" || strings.TrimSpace(t.ChatID) == "" {
		return fmt.Errorf("notify.telegram requires bot_token and chat_id when enabled")
	}
	return nil
}

func (s *ScanConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	if len(s.Universe) == 0 {
		return fmt.Errorf("scan.universe cannot be empty when scan.enabled")
	}
	if _, err := time.ParseDuration(s.Interval); err != nil {
		return fmt.Errorf("scan.interval %q is not a duration: %w", s.Interval, err)
	}
	return nil
}
