package game

import (
	"context"
	"testing"
	"time"
)

func TestDriverCheckpointsOnStop(t *testing.T) {
	svc, store := newTestService(t, testSimConfig())
	svc.now = time.Now
	g, err := svc.CreateSession(context.Background(), 1, CreateSessionRequest{AutoStart: true})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	saves := store.Saves()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewDriver(svc, time.Millisecond, discard).Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("driver did not stop")
	}

	if store.Saves() <= saves {
		t.Fatal("driver did not checkpoint on stop")
	}
	if meta, _, _ := store.LoadSession(context.Background(), g.ID); meta.ID != g.ID {
		t.Fatalf("stored session = %+v", meta)
	}
}
