package health

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/glamflow/libs/grpcx"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/mirror"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type fakeState struct {
	mu        sync.Mutex
	connected bool
	ch        chan mirror.Change
}

func (f *fakeState) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeState) Subscribe() (<-chan mirror.Change, func()) {
	return f.ch, func() {}
}

func (f *fakeState) flip(connected bool) {
	f.mu.Lock()
	f.connected = connected
	f.mu.Unlock()
	f.ch <- mirror.Change{Connected: connected}
}

func TestSyncStatusFollowsState(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	state := &fakeState{connected: true, ch: make(chan mirror.Change)}
	go srv.Track(ctx, state)
	go func() { _ = srv.Serve(ctx, lis) }()

	conn, err := grpcx.NewClient(lis.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	waitFor(t, client, healthpb.HealthCheckResponse_SERVING)
	state.flip(false)
	waitFor(t, client, healthpb.HealthCheckResponse_NOT_SERVING)
	state.flip(true)
	waitFor(t, client, healthpb.HealthCheckResponse_SERVING)
}

func waitFor(t *testing.T, client healthpb.HealthClient, want healthpb.HealthCheckResponse_ServingStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: SyncService})
		cancel()
		if err == nil && resp.GetStatus() == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("status never became %v (last err %v)", want, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
