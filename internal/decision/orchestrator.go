package decision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/davidahmann/agent-platform/internal/gateway"
	"github.com/davidahmann/agent-platform/internal/opstate"
	"github.com/davidahmann/agent-platform/pkg/types"
)

const NoTenantMessage = "No tenant_id. Login first."

var (
	ErrNoTenant   = errors.New("no tenant_id: login first")
	ErrSuperseded = errors.New("decision query superseded by a newer query")
)

type Doer interface {
	Do(ctx context.Context, req gateway.Request) (gateway.Payload, error)
}

// TenantSource supplies the tenant every query is scoped to.
type TenantSource interface {
	TenantID() (string, bool)
}

// Orchestrator runs decision queries. A new Ask supersedes any query still
// in flight; the stale response is discarded when it arrives.
type Orchestrator struct {
	gw      Doer
	tenants TenantSource
	logger  *slog.Logger
	slot    opstate.Slot[types.DecisionResult]
}

func NewOrchestrator(gw Doer, tenants TenantSource, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{gw: gw, tenants: tenants, logger: logger}
}

// Ask validates the input, posts the decision request and records the
// outcome. The returned error classifies a failure: ErrNoTenant and
// *FieldsError are local, *gateway.APIError and *gateway.TransportError
// come from the call, ErrSuperseded means a newer Ask owns the state.
func (o *Orchestrator) Ask(ctx context.Context, question string, rawFields string) (opstate.State[types.DecisionResult], error) {
	o.slot.Reset()

	tenantID, ok := o.tenants.TenantID()
	if !ok {
		return o.fail(NoTenantMessage), ErrNoTenant
	}

	fields, err := ParseFields(rawFields)
	if err != nil {
		return o.fail(err.Error()), err
	}

	body, err := EncodeRequest(BuildRequest(question, fields), "")
	if err != nil {
		err = fmt.Errorf("encode decision request: %w", err)
		return o.fail(err.Error()), err
	}

	ticket := o.slot.Begin()
	payload, err := o.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		Path:   Path(tenantID),
		Body:   body,
		Auth:   true,
	})

	var next opstate.State[types.DecisionResult]
	if err == nil {
		var result types.DecisionResult
		result, err = decodeResult(payload)
		if err == nil {
			next = opstate.Succeeded(result)
		}
	}
	if err != nil {
		next = opstate.Failed[types.DecisionResult](messageOr(err, "Decision failed"))
	}

	if !o.slot.Settle(ticket, next) {
		o.logger.Debug("discarded stale decision response", "tenant_id", tenantID)
		return next, ErrSuperseded
	}
	if err != nil {
		o.logger.Info("decision failed", "tenant_id", tenantID, "error", err)
		return next, err
	}
	result, _ := next.Value()
	o.logger.Debug("decision received", "tenant_id", tenantID, "decision", string(result.Decision))
	return next, nil
}

func (o *Orchestrator) Current() opstate.State[types.DecisionResult] {
	return o.slot.Current()
}

// Reset clears the result and error and discards any in-flight query.
func (o *Orchestrator) Reset() {
	o.slot.Reset()
}

func (o *Orchestrator) fail(message string) opstate.State[types.DecisionResult] {
	state := opstate.Failed[types.DecisionResult](message)
	o.slot.Set(state)
	return state
}

func decodeResult(payload gateway.Payload) (types.DecisionResult, error) {
	if payload.IsNull() {
		return types.DecisionResult{}, errors.New("invalid decision response: empty body")
	}
	var result types.DecisionResult
	if err := payload.Decode(&result); err != nil {
		return types.DecisionResult{}, fmt.Errorf("invalid decision response: %w", err)
	}
	result.Raw, _ = payload.JSON()
	return result, nil
}

func messageOr(err error, fallback string) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
