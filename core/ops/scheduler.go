package ops

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"kestrel-eoc/config"
	"kestrel-eoc/core/store"
	"kestrel-eoc/core/utils"
)

// Scheduler runs the housekeeping jobs: pruning unlinked radio messages past
// retention and sweeping expired sessions. Linked messages are never pruned;
// they are part of an incident's audit trail.
type Scheduler struct {
	cfg      *config.AppConfig
	radio    store.RadioStore
	sessions store.SessionStore
	audits   store.AuditStore
	logger   *utils.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

func NewScheduler(cfg *config.AppConfig, radioStore store.RadioStore, sessions store.SessionStore, audits store.AuditStore, logger *utils.Logger) *Scheduler {
	return &Scheduler{cfg: cfg, radio: radioStore, sessions: sessions, audits: audits, logger: logger}
}

func (s *Scheduler) StartWithContext(ctx context.Context) {
	if s == nil || !s.cfg.Maintenance.Enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	c := cron.New()
	if spec := s.cfg.Maintenance.RadioPruneSpec; spec != "" {
		if _, err := c.AddFunc(spec, func() { s.PruneRadioMessages(runCtx, time.Now().UTC()) }); err != nil && s.logger != nil {
			s.logger.Errorf("maintenance radio prune spec %q: %v", spec, err)
		}
	}
	if spec := s.cfg.Maintenance.SessionPurgeSpec; spec != "" {
		if _, err := c.AddFunc(spec, func() { s.PurgeSessions(runCtx, time.Now().UTC()) }); err != nil && s.logger != nil {
			s.logger.Errorf("maintenance session purge spec %q: %v", spec, err)
		}
	}
	c.Start()
	s.cron = c
	s.running = true
}

func (s *Scheduler) StopWithContext(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	c := s.cron
	cancel := s.cancel
	s.cron = nil
	s.cancel = nil
	s.running = false
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PruneRadioMessages deletes unlinked messages received before the retention
// cutoff. Exposed for tests and for manual runs from the admin API.
func (s *Scheduler) PruneRadioMessages(ctx context.Context, now time.Time) {
	days := s.cfg.Radio.RetentionDays
	if days <= 0 {
		return
	}
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	n, err := s.radio.DeleteMessagesBefore(ctx, cutoff)
	if err != nil {
		if s.logger != nil {
			s.logger.Errorf("radio retention prune: %v", err)
		}
		return
	}
	if n > 0 {
		if s.audits != nil {
			_ = s.audits.Log(ctx, "system", "maintenance.radio.prune", cutoff.Format(time.RFC3339))
		}
		if s.logger != nil {
			s.logger.Printf("pruned %d radio messages older than %s", n, cutoff.Format(time.RFC3339))
		}
	}
}

func (s *Scheduler) PurgeSessions(ctx context.Context, now time.Time) {
	n, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		if s.logger != nil {
			s.logger.Errorf("session purge: %v", err)
		}
		return
	}
	if n > 0 && s.logger != nil {
		s.logger.Printf("purged %d expired sessions", n)
	}
}
