package config

import "fmt"

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for store driver %q", StoreDriverPostgres)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("store.driver must be %q or %q (got %q)", StoreDriverPostgres, StoreDriverMemory, c.Store.Driver)
	}

	if err := c.Lock.validate(); err != nil {
		return fmt.Errorf("lock: %w", err)
	}

	if err := c.List.validate(); err != nil {
		return fmt.Errorf("list: %w", err)
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must be > 0 (got %d)", c.RateLimit.RequestsPerMinute)
	}

	return nil
}

func (l *LockConfig) validate() error {
	if l.Duration <= 0 {
		return fmt.Errorf("duration must be > 0 (got %v)", l.Duration)
	}
	if l.ExtendInterval <= 0 || l.ExtendInterval >= l.Duration {
		return fmt.Errorf("extend_interval must be in (0, %v) (got %v)", l.Duration, l.ExtendInterval)
	}
	if l.CheckInterval <= 0 {
		return fmt.Errorf("check_interval must be > 0 (got %v)", l.CheckInterval)
	}
	if l.SweepInterval < 0 {
		return fmt.Errorf("sweep_interval must be >= 0 (got %v)", l.SweepInterval)
	}
	return nil
}

func (l *ListConfig) validate() error {
	if l.PageSize <= 0 {
		return fmt.Errorf("page_size must be > 0 (got %d)", l.PageSize)
	}
	if l.MaxPageSize < l.PageSize {
		return fmt.Errorf("max_page_size must be >= page_size (got %d < %d)", l.MaxPageSize, l.PageSize)
	}
	if l.BackfillThreshold < 0 {
		return fmt.Errorf("backfill_threshold must be >= 0 (got %d)", l.BackfillThreshold)
	}
	if l.MaxBackfillPages < 0 {
		return fmt.Errorf("max_backfill_pages must be >= 0 (got %d)", l.MaxBackfillPages)
	}
	return nil
}
