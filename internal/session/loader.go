package session

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/davidahmann/agent-platform/internal/gateway"
	"github.com/davidahmann/agent-platform/internal/opstate"
	"github.com/davidahmann/agent-platform/pkg/types"
)

const MePath = "/api/auth/me"

type Doer interface {
	Do(ctx context.Context, req gateway.Request) (gateway.Payload, error)
}

// Loader fetches the current identity and tenant. Each LoadMe overwrites
// the previous state unconditionally.
type Loader struct {
	gw     Doer
	logger *slog.Logger
	slot   opstate.Slot[types.SessionContext]
}

func NewLoader(gw Doer, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{gw: gw, logger: logger}
}

// LoadMe issues GET /api/auth/me and returns the state it resolved to.
func (l *Loader) LoadMe(ctx context.Context) opstate.State[types.SessionContext] {
	ticket := l.slot.Begin()
	next := l.fetch(ctx)
	if !l.slot.Settle(ticket, next) {
		l.logger.Debug("discarded stale /me response")
	}
	return next
}

func (l *Loader) fetch(ctx context.Context) opstate.State[types.SessionContext] {
	payload, err := l.gw.Do(ctx, gateway.Request{Method: http.MethodGet, Path: MePath, Auth: true})
	if err != nil {
		l.logger.Info("load session failed", "error", err)
		return opstate.Failed[types.SessionContext](messageOr(err, "Failed to load /me"))
	}
	if payload.IsNull() {
		return opstate.Failed[types.SessionContext]("Failed to load /me: empty response")
	}

	var me types.SessionContext
	if err := payload.Decode(&me); err != nil {
		return opstate.Failed[types.SessionContext]("Failed to load /me: " + err.Error())
	}
	return opstate.Succeeded(me)
}

func (l *Loader) Current() opstate.State[types.SessionContext] {
	return l.slot.Current()
}

// Context returns the loaded session, or nil when none is loaded.
func (l *Loader) Context() *types.SessionContext {
	me, ok := l.slot.Current().Value()
	if !ok {
		return nil
	}
	return &me
}

// TenantID returns the loaded tenant id; ok is false without a session.
func (l *Loader) TenantID() (string, bool) {
	me := l.Context()
	if me == nil || me.TenantID == "" {
		return "", false
	}
	return me.TenantID, true
}

// Reset drops the session and discards any in-flight load.
func (l *Loader) Reset() {
	l.slot.Reset()
}

func messageOr(err error, fallback string) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
