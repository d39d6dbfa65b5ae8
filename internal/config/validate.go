package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalid = errors.New("invalid config")

// Validate checks structural rules that do not need the task packages:
// non-negative tyme values, known kinds and unique task names.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalid)
	}
	var errs []error
	s := c.Scheduler
	if s.Tock < 0 {
		errs = append(errs, fmt.Errorf("scheduler.tock: must be >= 0"))
	}
	if s.Limit < 0 {
		errs = append(errs, fmt.Errorf("scheduler.limit: must be >= 0"))
	}
	if s.Real && s.Tock <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.tock: real mode needs tock > 0"))
	}
	if j := c.Journal; j != nil {
		switch strings.ToLower(strings.TrimSpace(j.Driver)) {
		case "", "none", "file", "sqlite", "sqlite3":
		default:
			errs = append(errs, fmt.Errorf("journal.driver: unknown driver %q", j.Driver))
		}
		if _, err := ParseDurationField("journal.busy_timeout", j.BusyTimeout); err != nil {
			errs = append(errs, err)
		}
	}

	seen := map[string]string{}
	var walk func(prefix string, ts []TaskConfig)
	walk = func(prefix string, ts []TaskConfig) {
		for i, t := range ts {
			path := fmt.Sprintf("%s[%d]", prefix, i)
			name := strings.TrimSpace(t.Name)
			if name == "" {
				errs = append(errs, fmt.Errorf("%s.name: required", path))
			} else if prev, dup := seen[name]; dup {
				errs = append(errs, fmt.Errorf("%s.name: %q already used at %s", path, name, prev))
			} else {
				seen[name] = path
			}
			if t.Tock != nil && *t.Tock < 0 {
				errs = append(errs, fmt.Errorf("%s.tock: must be >= 0", path))
			}
			if t.Count < 0 {
				errs = append(errs, fmt.Errorf("%s.count: must be >= 0", path))
			}
			switch t.NormalizedKind() {
			case KindTicker:
			case KindCron:
				if strings.TrimSpace(t.Schedule) == "" {
					errs = append(errs, fmt.Errorf("%s.schedule: required for cron", path))
				}
				if _, err := ParseDurationField(path+".spread", t.Spread); err != nil {
					errs = append(errs, err)
				}
			case KindGroup:
				walk(path+".children", t.Children)
				continue
			default:
				errs = append(errs, fmt.Errorf("%s.kind: unknown kind %q", path, t.Kind))
			}
			if len(t.Children) > 0 {
				errs = append(errs, fmt.Errorf("%s.children: only groups have children", path))
			}
		}
	}
	walk("tasks", c.Tasks)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
