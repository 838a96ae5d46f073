package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/auctionhouse/go/internal/auction"
	"github.com/mcdev12/auctionhouse/go/internal/capacity"
	"github.com/mcdev12/auctionhouse/go/internal/ledger"
	"github.com/mcdev12/auctionhouse/go/internal/slowmode"
	"github.com/stretchr/testify/require"
)

var _ auction.Broadcaster = (*ConnectionManager)(nil)

func newTestHandler(t *testing.T) *WebSocketHandler {
	t.Helper()

	repo := ledger.NewMemoryRepository()
	cm := NewConnectionManager(DefaultConnectionConfig())
	registry := auction.NewRegistry(auction.Deps{
		Repo:        repo,
		Capacity:    capacity.NewModel(repo),
		Coordinator: slowmode.NewMemoryCoordinator(),
		Broadcaster: cm,
		Clock:       clockwork.NewFakeClock(),
	})
	t.Cleanup(registry.Shutdown)
	return NewWebSocketHandler(cm, registry)
}

func TestHandleAuctionConnectionValidatesParams(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{
			name:   "missing league_id",
			target: "/ws/auction",
			status: http.StatusBadRequest,
		},
		{
			name:   "malformed league_id",
			target: "/ws/auction?league_id=not-a-uuid&team_id=" + uuid.NewString() + "&user_id=" + uuid.NewString(),
			status: http.StatusBadRequest,
		},
		{
			name:   "missing team_id",
			target: "/ws/auction?league_id=" + uuid.NewString() + "&user_id=" + uuid.NewString(),
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown league",
			target: "/ws/auction?league_id=" + uuid.NewString() + "&team_id=" + uuid.NewString() + "&user_id=" + uuid.NewString(),
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			handler.HandleAuctionConnection(rec, req)
			require.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestConnectionStatsEmpty(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	stats := cm.GetConnectionStats()
	require.Equal(t, 0, stats["total_connections"])
	require.Equal(t, 0, stats["active_leagues"])
}
