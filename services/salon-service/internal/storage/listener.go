package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/recordstore"
)

// Listen follows the change feed on a dedicated connection until ctx ends.
// When the connection drops every watcher gets an error snapshot, and after
// reconnecting every resource is reloaded.
func (s *Store) Listen(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second

	for {
		err := s.listenOnce(ctx, b.Reset)
		if ctx.Err() != nil {
			return nil
		}
		s.logger.Warn("change feed lost; reconnecting", "err", err)
		s.hub.Fail(fmt.Errorf("%w: %v", recordstore.ErrUnavailable, err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(b.NextBackOff()):
		}
	}
}

func (s *Store) listenOnce(ctx context.Context, connected func()) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, _ = conn.Exec(cleanupCtx, "UNLISTEN *")
		conn.Release()
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{notifyChannel}.Sanitize()); err != nil {
		return err
	}
	connected()
	s.logger.Info("change feed listening", "channel", notifyChannel)

	for _, r := range recordstore.Resources {
		s.refresh(ctx, r)
	}
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		resource := recordstore.Resource(n.Payload)
		if !resource.Valid() {
			s.logger.Debug("ignoring change notification", "payload", n.Payload)
			continue
		}
		s.refresh(ctx, resource)
	}
}
