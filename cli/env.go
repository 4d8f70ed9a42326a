// ABOUTME: Shared wiring for commands that open and submit appointments
// ABOUTME: Loads config, resolves the credential and builds the opener and syncer
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/timeline/charm"
	"github.com/harperreed/timeline/credential"
	"github.com/harperreed/timeline/db"
	"github.com/harperreed/timeline/logging"
	"github.com/harperreed/timeline/mailitem"
	"github.com/harperreed/timeline/models"
	"github.com/harperreed/timeline/sync"
)

// Env holds what a command needs to open sources and submit them.
type Env struct {
	DB      *sql.DB
	Config  *sync.Config
	Opener  *sync.Opener
	Keyring func() (*credential.Store, error)
}

// NewEnv loads and validates the config and prepares the source opener.
func NewEnv(database *sql.DB) (*Env, error) {
	cfg, err := sync.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &Env{
		DB:     database,
		Config: cfg,
		Opener: &sync.Opener{
			DB:       database,
			Backend:  cfg.PropertyBackend,
			Charm:    charm.GetClient,
			Calendar: sync.OpenCalendar,
			Location: loc,
		},
		Keyring: credential.Open,
	}, nil
}

// Open resolves a source argument.
func (e *Env) Open(ctx context.Context, source string) (*sync.Source, error) {
	return e.Opener.Open(ctx, source)
}

// Credential returns the Timeline credential from the environment or the keyring.
func (e *Env) Credential() (string, error) {
	if e.Config.Credential != "" {
		return e.Config.Credential, nil
	}
	if e.Keyring == nil {
		return "", nil
	}
	store, err := e.Keyring()
	if err != nil {
		return "", err
	}
	return store.Resolve("")
}

var errNoCredential = errors.New("no Timeline credential found. Run 'timeline auth timeline' or set TIMELINE_CREDENTIAL")

// unauthenticated fails every send; previews never reach it.
type unauthenticated struct{}

func (unauthenticated) Send(context.Context, string) (models.Status, error) {
	return models.Status{}, errNoCredential
}

// Transport returns a client for the configured endpoint.
func (e *Env) Transport() (sync.Transport, error) {
	cred, err := e.Credential()
	if err != nil {
		return nil, err
	}
	if cred == "" {
		return nil, errNoCredential
	}

	cfg := *e.Config
	cfg.Credential = cred
	return sync.NewClient(&cfg)
}

// Syncer builds a syncer that posts to the configured endpoint and records
// submissions in the database.
func (e *Env) Syncer(ctx context.Context, src *sync.Source) (*sync.Syncer, error) {
	transport, err := e.Transport()
	if err != nil {
		return nil, err
	}
	return e.syncerWith(ctx, transport, src)
}

// PreviewSyncer builds a syncer that can build payloads without a credential.
func (e *Env) PreviewSyncer(ctx context.Context, src *sync.Source) (*sync.Syncer, error) {
	return e.syncerWith(ctx, unauthenticated{}, src)
}

func (e *Env) syncerWith(ctx context.Context, transport sync.Transport, src *sync.Source) (*sync.Syncer, error) {
	loc, err := e.Config.Location()
	if err != nil {
		return nil, err
	}

	profile, err := e.profile(ctx, src)
	if err != nil {
		return nil, err
	}

	opts := []sync.SyncerOption{sync.WithNormalizeOptions(sync.WithLocation(loc))}
	if e.DB != nil {
		opts = append(opts, sync.WithRecorder(db.NewLedger(e.DB)))
	}
	return sync.NewSyncer(transport, profile, opts...), nil
}

// profile uses the configured owner email, falling back to the Google
// account for Calendar events.
func (e *Env) profile(ctx context.Context, src *sync.Source) (mailitem.UserProfile, error) {
	if e.Config.OwnerEmail != "" {
		return mailitem.StaticProfile(e.Config.OwnerEmail), nil
	}
	if src == nil || !strings.HasPrefix(src.Item.Key(), sync.GoogleSourcePrefix) {
		logging.Default().Warn("owner_email is not configured; payloads will carry an empty OwnerEmail",
			"fix", "timeline config set --owner you@example.com")
		return mailitem.StaticProfile(""), nil
	}
	svc, err := e.Opener.Calendar(ctx)
	if err != nil {
		return nil, err
	}
	return sync.NewGoogleProfile(svc), nil
}
