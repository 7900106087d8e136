package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Skotchmaster/baseball_stats/internal/events"
	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/Skotchmaster/baseball_stats/internal/transport"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPlayerService(t *testing.T) (*PlayerService, *recordingPublisher, *fakeIndex) {
	t.Helper()

	pub := &recordingPublisher{}
	idx := newFakeIndex()
	return &PlayerService{Repo: newTestRepo(t), Events: pub, Index: idx}, pub, idx
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestPlayerService_Create(t *testing.T) {
	svc, pub, idx := newTestPlayerService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, transport.CreatePlayerRequest{
		PlayerName: "Babe Ruth",
		Position:   strPtr("rf"),
		PlayerStats: transport.PlayerStats{
			Games:          intPtr(100),
			Hits:           intPtr(150),
			BattingAverage: decPtr("0.342"),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "RF", *p.Position)
	require.True(t, p.HitsPerGame.Valid)
	assert.Equal(t, "1.500", p.HitsPerGame.Decimal.StringFixed(3))
	assert.Equal(t, "Babe Ruth", idx.indexed[p.ID])

	got := pub.All()
	require.Len(t, got, 1)
	assert.Equal(t, events.TopicPlayers, got[0].Topic)
	assert.Equal(t, events.PlayerCreated, got[0].Event.(events.PlayerEvent).Type)
}

func TestPlayerService_Create_Validation(t *testing.T) {
	svc, _, _ := newTestPlayerService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   transport.CreatePlayerRequest
		field string
	}{
		{name: "missing name", req: transport.CreatePlayerRequest{}, field: "player_name"},
		{
			name:  "negative count",
			req:   transport.CreatePlayerRequest{PlayerName: "X", PlayerStats: transport.PlayerStats{Runs: intPtr(-1)}},
			field: "runs",
		},
		{
			name:  "average above one",
			req:   transport.CreatePlayerRequest{PlayerName: "X", PlayerStats: transport.PlayerStats{BattingAverage: decPtr("1.2")}},
			field: "batting_average",
		},
		{
			name:  "ops above three",
			req:   transport.CreatePlayerRequest{PlayerName: "X", PlayerStats: transport.PlayerStats{OPS: decPtr("3.5")}},
			field: "ops",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestPlayerService_Update_RecomputesHitsPerGame(t *testing.T) {
	svc, _, _ := newTestPlayerService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, transport.CreatePlayerRequest{
		PlayerName:  "Lou Gehrig",
		PlayerStats: transport.PlayerStats{Games: intPtr(100), Hits: intPtr(150)},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, p.ID, transport.PatchPlayerRequest{
		PlayerStats: transport.PlayerStats{Games: intPtr(50)},
	})
	require.NoError(t, err)
	assert.Equal(t, "3.000", updated.HitsPerGame.Decimal.StringFixed(3))
	assert.Equal(t, 150, *updated.Hits)

	updated, err = svc.Update(ctx, p.ID, transport.PatchPlayerRequest{
		PlayerStats: transport.PlayerStats{Games: intPtr(0)},
	})
	require.NoError(t, err)
	assert.False(t, updated.HitsPerGame.Valid)

	renamed, err := svc.Update(ctx, p.ID, transport.PatchPlayerRequest{PlayerName: strPtr("Henry Louis Gehrig")})
	require.NoError(t, err)
	assert.Equal(t, "Henry Louis Gehrig", renamed.PlayerName)

	_, err = svc.Update(ctx, uuid.New(), transport.PatchPlayerRequest{PlayerName: strPtr("Nobody")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlayerService_Delete(t *testing.T) {
	svc, pub, idx := newTestPlayerService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, transport.CreatePlayerRequest{PlayerName: "Honus Wagner"})
	require.NoError(t, err)
	require.NoError(t, svc.Repo.CreateDescription(ctx, &models.PlayerDescription{
		PlayerID: p.ID, Content: "The Flying Dutchman.", ModelUsed: "gpt-4o-mini",
	}))

	require.NoError(t, svc.Delete(ctx, p.ID))
	assert.Contains(t, idx.deleted, p.ID)

	_, err = svc.Get(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, p.ID), ErrNotFound)

	all := pub.All()
	assert.Equal(t, events.PlayerDeleted, all[len(all)-1].Event.(events.PlayerEvent).Type)
}

func TestPlayerService_List(t *testing.T) {
	svc, _, _ := newTestPlayerService(t)
	ctx := context.Background()

	for _, name := range []string{"Mickey Mantle", "Willie Mays", "Hank Aaron"} {
		_, err := svc.Create(ctx, transport.CreatePlayerRequest{PlayerName: name, Position: strPtr("cf")})
		require.NoError(t, err)
	}

	res, err := svc.List(ctx, transport.ListPlayersQuery{Page: 1, PageSize: 2, SortBy: "player_name", SortOrder: "desc"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total)
	assert.EqualValues(t, 2, res.Pages)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Willie Mays", res.Items[0].PlayerName)

	_, err = svc.List(ctx, transport.ListPlayersQuery{Page: 1, PageSize: 20, SortBy: "hashed_password"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "sort_by")

	_, err = svc.List(ctx, transport.ListPlayersQuery{Page: 1, PageSize: 101})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPlayerService_Search(t *testing.T) {
	svc, _, _ := newTestPlayerService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, transport.CreatePlayerRequest{PlayerName: "Roberto Clemente"})
	require.NoError(t, err)

	res, err := svc.Search(ctx, "Roberto Clemente", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)

	_, err = svc.Search(ctx, "  ", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)

	disabled := &PlayerService{Repo: svc.Repo}
	_, err = disabled.Search(ctx, "Roberto", 1, 10)
	assert.ErrorIs(t, err, ErrSearchDisabled)
}

func TestPlayerService_Backfill(t *testing.T) {
	svc, _, _ := newTestPlayerService(t)
	ctx := context.Background()

	seed := []*models.Player{
		{PlayerName: "Rogers Hornsby", Games: intPtr(100), Hits: intPtr(150)},
		{PlayerName: "Nap Lajoie", Games: intPtr(0), Hits: intPtr(10)},
		{PlayerName: "Tris Speaker", Hits: intPtr(200)},
	}
	for _, p := range seed {
		require.NoError(t, svc.Repo.CreatePlayer(ctx, p))
	}

	var visited []string
	report, err := svc.BackfillHitsPerGame(ctx, true, func(p models.Player, _ decimal.NullDecimal) {
		visited = append(visited, p.PlayerName)
	})
	require.NoError(t, err)
	assert.Equal(t, BackfillReport{Total: 3, Updated: 1, Skipped: 2}, report)
	assert.Len(t, visited, 3)

	missing, err := svc.Repo.PlayersMissingHitsPerGame(ctx)
	require.NoError(t, err)
	assert.Len(t, missing, 3, "dry run must not write")

	report, err = svc.BackfillHitsPerGame(ctx, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)

	got, err := svc.Get(ctx, seed[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "1.500", got.HitsPerGame.Decimal.StringFixed(3))
}
