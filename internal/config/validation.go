package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Validate checks the invariants defaults cannot repair.
func (c *Config) Validate() error {
	var errs []error

	if c.Classifier.BodyLimit < 0 {
		errs = append(errs, errors.New("classifier.body_limit cannot be negative"))
	}
	for _, s := range c.Classifier.RetriableStatuses {
		switch {
		case s == http.StatusTooManyRequests:
			errs = append(errs, errors.New("classifier.retriable_statuses: 429 is always classified as throttling"))
		case s < http.StatusBadRequest || s >= http.StatusInternalServerError:
			errs = append(errs, fmt.Errorf("classifier.retriable_statuses: %d is not a 4xx status", s))
		}
	}

	if !c.Retry.Mode.Valid() {
		errs = append(errs, fmt.Errorf("retry.mode: unknown backoff mode %q", c.Retry.Mode))
	}
	if c.Retry.Initial < 0 || c.Retry.Max < 0 {
		errs = append(errs, errors.New("retry: durations cannot be negative"))
	}
	if c.Retry.MaxRetryCount() < 0 {
		errs = append(errs, errors.New("retry.max_retries cannot be negative"))
	}

	if c.Journal.Retention < 0 || c.Journal.PruneInterval < 0 {
		errs = append(errs, errors.New("journal: durations cannot be negative"))
	}
	if strings.ContainsAny(c.Events.SubjectPrefix, " *>") {
		errs = append(errs, fmt.Errorf("events.subject_prefix: %q is not a literal subject", c.Events.SubjectPrefix))
	}

	return errors.Join(errs...)
}
