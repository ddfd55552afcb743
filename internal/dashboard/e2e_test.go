package dashboard

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidahmann/agent-platform/internal/gateway"
	"github.com/davidahmann/agent-platform/internal/mockapi"
	"github.com/davidahmann/agent-platform/internal/opstate"
	"github.com/davidahmann/agent-platform/internal/tokenstore"
	"github.com/davidahmann/agent-platform/pkg/types"
)

func TestEndToEndAgainstMockBackend(t *testing.T) {
	h, err := mockapi.NewHandler(make([]byte, 32), nil)
	require.NoError(t, err)
	srv := httptest.NewServer(mockapi.NewRouter(h))
	defer srv.Close()

	tokens, err := tokenstore.Open(filepath.Join(t.TempDir(), "credentials.yaml"), tokenstore.DefaultKey)
	require.NoError(t, err)

	ctx := context.Background()
	d := New(Options{Gateway: gateway.NewClient(srv.URL, tokens, 0), Tokens: tokens})

	resp, err := d.Auth.Signup(ctx, types.SignupRequest{
		OrgName:  "Demo School",
		OrgType:  "school",
		Email:    "admin@example.com",
		Password: "123456",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Tenant)

	me := d.Mount(ctx)
	require.Equal(t, opstate.StatusSucceeded, me.Status(), me.Err())
	tenantID, ok := d.Session.TenantID()
	require.True(t, ok)
	assert.Equal(t, resp.Tenant.ID, tenantID)

	d.Form.ApplyPreset("ABSENCES_INFO")
	state, err := d.Ask(ctx)
	require.NoError(t, err)
	result, ok := state.Value()
	require.True(t, ok)
	assert.Equal(t, types.VerdictAnswer, result.Decision)
	assert.Equal(t, "STU-002", result.Data["student_id"])
	assert.Equal(t, "admin@example.com", result.RequestedBy)
	assert.NotEmpty(t, result.Raw)

	// Persisted credential survives a reopen.
	reopened, err := tokenstore.Open(tokens.Path(), tokenstore.DefaultKey)
	require.NoError(t, err)
	_, stored, err := reopened.Get()
	require.NoError(t, err)
	assert.True(t, stored)

	require.NoError(t, d.Logout())
	after := d.Refresh(ctx)
	assert.Equal(t, "Not authenticated", after.Err())

	_, err = d.Auth.Login(ctx, "admin@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, opstate.StatusSucceeded, d.Refresh(ctx).Status())

	_, err = d.Auth.Login(ctx, "admin@example.com", "nope")
	var apiErr *gateway.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}
