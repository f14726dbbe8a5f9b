package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/taxjar-adapter/internal/config"
	"github.com/samvad-hq/taxjar-adapter/internal/journal"
	"github.com/samvad-hq/taxjar-adapter/internal/logger"
	"github.com/samvad-hq/taxjar-adapter/internal/profiles"
	"github.com/samvad-hq/taxjar-adapter/pkg/api"
	"github.com/samvad-hq/taxjar-adapter/pkg/httpclient"
	"github.com/samvad-hq/taxjar-adapter/pkg/notifiers"
)

const (
	defaultProfileName   = "default"
	defaultNotifyTimeout = 5 * time.Second
)

// Caller wires together the API client, the call journal and the notifiers.
type Caller struct {
	cfg     *config.Config
	profile profiles.Profile
	client  *api.Client
	journal journal.Store
	sinks   *notifiers.Dispatcher
	log     logger.Logger
}

// Option customizes Caller construction.
type Option func(*options)

type options struct {
	transport api.Transport
}

// WithTransport replaces the default resty transport.
func WithTransport(t api.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// NewCaller builds a caller runtime from config and the optional profile and notifier files.
func NewCaller(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Caller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.transport == nil {
		o.transport = httpclient.NewRestyTransport()
	}

	profile, err := resolveProfile(cfg)
	if err != nil {
		return nil, err
	}
	log.InfoObj("profile resolved", "profile", map[string]any{
		"name":     profile.Name,
		"base_url": profile.BaseURL(),
	})

	store, err := journal.NewStore(cfg.JournalType, cfg.JournalPath, journal.Options{
		EntryTTL:        cfg.JournalTTL,
		CleanupInterval: cfg.JournalCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	sinks, err := buildNotifiers(ctx, cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	c := &Caller{
		cfg:     cfg,
		profile: profile,
		journal: store,
		sinks:   sinks,
		log:     log,
	}
	c.client = api.NewClient(profile.Context(cfg.APIKey), o.transport,
		api.WithLogger(log),
		api.WithObserver(api.ObserverFunc(c.recordOutcome)),
		api.WithObserver(api.ObserverFunc(c.notifyOutcome)),
	)
	return c, nil
}

func resolveProfile(cfg *config.Config) (profiles.Profile, error) {
	if cfg.ProfilesFile == "" {
		return profiles.Profile{
			Name:      defaultProfileName,
			APIURL:    cfg.APIURL,
			UserAgent: cfg.UserAgent,
			Sandbox:   cfg.Sandbox,
		}, nil
	}

	reg, err := profiles.LoadRegistry(cfg.ProfilesFile)
	if err != nil {
		return profiles.Profile{}, fmt.Errorf("load profiles registry: %w", err)
	}

	name := strings.TrimSpace(cfg.Profile)
	if name == "" {
		name = defaultProfileName
	}
	profile, ok := reg.ByName(name)
	if !ok {
		return profiles.Profile{}, fmt.Errorf("profile %q not found in %s", name, cfg.ProfilesFile)
	}
	if profile.UserAgent == "" {
		profile.UserAgent = cfg.UserAgent
	}
	return profile, nil
}

func buildNotifiers(ctx context.Context, cfg *config.Config, log logger.Logger) (*notifiers.Dispatcher, error) {
	if cfg.NotifiersFile == "" || cfg.NotifyOn == config.NotifyNone {
		return notifiers.NewDispatcher(), nil
	}

	cat, err := notifiers.LoadCatalog(cfg.NotifiersFile)
	if err != nil {
		return nil, fmt.Errorf("load notifiers: %w", err)
	}
	active := cat.Active()
	sinks, err := notifiers.BuildAll(ctx, notifiers.DefaultBuilders(), active, log)
	if err != nil {
		return nil, err
	}
	log.InfoObj("notifiers loaded", "notifiers", active)
	return sinks, nil
}

// Call performs d, applying the configured timeout when d carries none.
func (c *Caller) Call(ctx context.Context, d api.CallDescriptor) (any, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("caller is not initialized")
	}
	if d.TimeoutSeconds <= 0 && c.cfg.Timeout > 0 {
		d.TimeoutSeconds = int(c.cfg.Timeout / time.Second)
	}
	return c.client.Perform(ctx, d)
}

// Recent returns up to n journal entries, newest first.
func (c *Caller) Recent(n int) ([]journal.Entry, error) {
	return c.journal.Recent(n)
}

// Profile returns the active profile.
func (c *Caller) Profile() profiles.Profile { return c.profile }

// Close releases notifier clients and the journal.
func (c *Caller) Close() error {
	if c == nil {
		return nil
	}
	return errors.Join(c.sinks.Close(), c.journal.Close())
}

func (c *Caller) recordOutcome(_ context.Context, o api.Outcome) {
	evt := notifiers.NewEvent(c.profile.Name, o)
	entry := journal.Entry{
		CallID:     o.CallID,
		Verb:       evt.Verb,
		Path:       o.Path,
		StatusCode: o.StatusCode,
		ElapsedMS:  evt.ElapsedMS,
		RecordedAt: o.StartedAt.UTC(),
	}
	if evt.Failed() {
		entry.Kind = evt.Kind
		entry.Message = evt.Message
	}
	if err := c.journal.Record(entry); err != nil {
		c.log.WarnObj("journal record failed", "journal_error", map[string]any{
			"call_id": o.CallID,
			"error":   err.Error(),
		})
	}
}

func (c *Caller) notifyOutcome(ctx context.Context, o api.Outcome) {
	if c.sinks.Len() == 0 {
		return
	}
	evt := notifiers.NewEvent(c.profile.Name, o)
	switch c.cfg.NotifyOn {
	case config.NotifyNone:
		return
	case config.NotifyErrors:
		if !evt.Failed() {
			return
		}
	}

	timeout := c.cfg.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	// Delivery outlives the call's cancellation but never the notify timeout.
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	sent, err := c.sinks.Notify(notifyCtx, evt)
	if err != nil {
		c.log.ErrorObj("notify failed", "notify_error", map[string]any{
			"call_id":   o.CallID,
			"delivered": sent,
			"error":     err.Error(),
		})
	}
}
