package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/seabattle/game/config"
	"github.com/wricardo/seabattle/game/service"
	"github.com/wricardo/seabattle/game/session"
)

// Run with -race: readers and a shooter share one persisted session.
func TestConcurrentSessionAccess(t *testing.T) {
	configs, err := config.NewManager("../../configs")
	require.NoError(t, err)
	persistence, err := session.NewFilePersistence(t.TempDir(), configs)
	require.NoError(t, err)

	sessions := session.NewManager(session.WithPersistence(persistence))
	svc := service.NewGameService(sessions, configs, service.WithSavesDir(t.TempDir()))

	ctx := context.Background()
	info, err := svc.CreateSession(ctx, "small")
	require.NoError(t, err)
	_, err = svc.StartGame(ctx, info.ID)
	require.NoError(t, err)

	const readers, calls = 8, 20
	var wg sync.WaitGroup
	errs := make(chan error, readers*calls*2)

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < calls; i++ {
				if _, err := svc.GetSession(ctx, info.ID); err != nil {
					errs <- err
				}
				if _, err := svc.ListSessions(ctx); err != nil {
					errs <- err
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 36; i++ {
			// shots after the match ends are rejected; only the races matter here
			svc.Shoot(ctx, info.ID, i%6, i/6)
			svc.GetGameState(ctx, info.ID)
			svc.GetShots(ctx, info.ID)
		}
	}()

	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	got, err := svc.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.False(t, got.LastAccessedAt.Before(got.CreatedAt))
}
