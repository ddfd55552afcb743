package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/davidahmann/agent-platform/internal/auth"
	"github.com/davidahmann/agent-platform/internal/decision"
	"github.com/davidahmann/agent-platform/internal/gateway"
	"github.com/davidahmann/agent-platform/internal/opstate"
	"github.com/davidahmann/agent-platform/internal/preset"
	"github.com/davidahmann/agent-platform/internal/session"
	"github.com/davidahmann/agent-platform/internal/tokenstore"
	"github.com/davidahmann/agent-platform/pkg/types"
)

const LoggedOutNotice = "Logged out. Go to Login."

// Dashboard composes the session loader, the decision orchestrator and the
// preset form around one gateway and token store.
type Dashboard struct {
	Auth      *auth.Service
	Session   *session.Loader
	Decisions *decision.Orchestrator
	Form      *preset.Form

	tokens tokenstore.Store
	logger *slog.Logger
	mount  sync.Once
	first  opstate.State[types.SessionContext]

	mu     sync.Mutex
	notice string
}

type Options struct {
	Gateway *gateway.Client
	Tokens  tokenstore.Store
	Catalog preset.Catalog
	Now     func() time.Time
	Logger  *slog.Logger
}

func New(opts Options) *Dashboard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	catalog := opts.Catalog
	if len(catalog.Presets) == 0 {
		catalog = preset.Default()
	}

	loader := session.NewLoader(opts.Gateway, logger)
	return &Dashboard{
		Auth:      &auth.Service{Gateway: opts.Gateway, Tokens: opts.Tokens, Logger: logger},
		Session:   loader,
		Decisions: decision.NewOrchestrator(opts.Gateway, loader, logger),
		Form:      preset.NewForm(catalog, opts.Now),
		tokens:    opts.Tokens,
		logger:    logger,
	}
}

// Mount loads the session the first time it is called. Later calls return
// the state of that first load without another request.
func (d *Dashboard) Mount(ctx context.Context) opstate.State[types.SessionContext] {
	d.mount.Do(func() {
		d.first = d.Session.LoadMe(ctx)
	})
	return d.first
}

// Refresh reloads the session unconditionally.
func (d *Dashboard) Refresh(ctx context.Context) opstate.State[types.SessionContext] {
	return d.Session.LoadMe(ctx)
}

// Ask submits the current form buffers.
func (d *Dashboard) Ask(ctx context.Context) (opstate.State[types.DecisionResult], error) {
	d.setNotice("")
	return d.Decisions.Ask(ctx, d.Form.Question(), d.Form.Fields())
}

// Logout clears the credential and every piece of session and decision
// state. Downstream state is reset even when the store fails to clear.
func (d *Dashboard) Logout() error {
	err := d.Auth.Logout()
	d.Session.Reset()
	d.Decisions.Reset()
	if err != nil {
		d.logger.Warn("logout: token store not cleared", "error", err)
		return err
	}
	d.setNotice(LoggedOutNotice)
	return nil
}

// TokenStored reports whether a credential is present.
func (d *Dashboard) TokenStored() (bool, error) {
	_, ok, err := d.tokens.Get()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (d *Dashboard) Notice() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notice
}

func (d *Dashboard) setNotice(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notice = msg
}

// Snapshot is a point-in-time view for rendering.
type Snapshot struct {
	Session     opstate.State[types.SessionContext]
	Decision    opstate.State[types.DecisionResult]
	TokenStored bool
	Notice      string
	PresetID    string
	Preview     preset.Preview
}

// Snapshot returns the view even when the token store cannot be read; the
// storage error is returned alongside it.
func (d *Dashboard) Snapshot() (Snapshot, error) {
	stored, err := d.TokenStored()
	snap := Snapshot{
		Session:     d.Session.Current(),
		Decision:    d.Decisions.Current(),
		TokenStored: stored,
		Notice:      d.Notice(),
		PresetID:    d.Form.PresetID(),
		Preview:     d.Form.Preview(),
	}
	return snap, err
}
