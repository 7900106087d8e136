package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/baseball_stats/internal/models"
	"github.com/Skotchmaster/baseball_stats/internal/repo"
	pkgdb "github.com/Skotchmaster/baseball_stats/pkg/db"
	"github.com/Skotchmaster/baseball_stats/pkg/tokens"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-32-bytes!"

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := pkgdb.Open(context.Background(), "sqlite::memory:", pkgdb.DefaultPool())
	require.NoError(t, err)
	t.Cleanup(func() { _ = pkgdb.Close(db) })

	r := &repo.GormRepo{DB: db}
	require.NoError(t, r.AutoMigrate())
	return r
}

func newTestCodec(t *testing.T) *tokens.Codec {
	t.Helper()

	c, err := tokens.NewCodec([]byte(testSecret), "HS256", 30*time.Minute)
	require.NoError(t, err)
	return c
}

type recordedEvent struct {
	Topic string
	Key   string
	Event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) All() []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedEvent(nil), p.events...)
}

type fakeIndex struct {
	mu      sync.Mutex
	indexed map[uuid.UUID]string
	deleted []uuid.UUID
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[uuid.UUID]string{}}
}

func (f *fakeIndex) IndexPlayer(_ context.Context, p *models.Player) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[p.ID] = p.PlayerName
	return nil
}

func (f *fakeIndex) DeletePlayer(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.indexed, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, query string, from, size int) (int64, []models.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Player
	for id, name := range f.indexed {
		if name == query {
			out = append(out, models.Player{ID: id, PlayerName: name})
		}
	}
	return int64(len(out)), out, nil
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
