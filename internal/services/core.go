package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/baharkarakas/h2credits-backend/internal/metrics"
	"github.com/baharkarakas/h2credits-backend/internal/models"
	repo "github.com/baharkarakas/h2credits-backend/internal/repository"
	"github.com/baharkarakas/h2credits-backend/internal/worker"
)

// Deps are shared by every service.
type Deps struct {
	Store repo.Store
	// Pool runs commerce operations; nil runs them on the caller's goroutine.
	Pool *worker.Pool
	// Timeout bounds how long a caller waits on a commerce operation.
	Timeout time.Duration
	Log     *slog.Logger
	Now     func() time.Time
}

type unitOfWork func(ctx context.Context, tx repo.Tx) error

type core struct {
	store   repo.Store
	pool    *worker.Pool
	timeout time.Duration
	log     *slog.Logger
	clock   func() time.Time
}

func newCore(d Deps) core {
	c := core{store: d.Store, pool: d.Pool, timeout: d.Timeout, log: d.Log, clock: d.Now}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	return c
}

func (c core) now() time.Time { return c.clock().UTC() }

// commerce runs fn as one unit of work on the worker pool and waits at most
// the configured timeout for it.
func (c core) commerce(ctx context.Context, op string, fn unitOfWork) error {
	start := time.Now()
	exec := func(ctx context.Context) error {
		return c.store.WithTx(ctx, func(tx repo.Tx) error { return fn(ctx, tx) })
	}

	var err error
	if c.pool != nil {
		err = c.pool.Do(ctx, c.timeout, exec)
	} else {
		err = exec(ctx)
	}
	metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return c.finish(op, err)
}

// write runs fn as one unit of work on the caller's goroutine.
func (c core) write(ctx context.Context, op string, fn unitOfWork) error {
	err := c.store.WithTx(ctx, func(tx repo.Tx) error { return fn(ctx, tx) })
	return c.finish(op, err)
}

func (c core) read(ctx context.Context, fn unitOfWork) error {
	return classify(c.store.View(ctx, func(tx repo.Tx) error { return fn(ctx, tx) }))
}

func (c core) finish(op string, err error) error {
	if err == nil {
		return nil
	}
	err = classify(err)
	metrics.OperationsFailed.WithLabelValues(op, reason(err)).Inc()
	if errors.Is(err, ErrPersistence) || errors.Is(err, ErrTimeout) {
		c.log.Error("operation failed", "op", op, "err", err)
	} else {
		c.log.Debug("operation rejected", "op", op, "err", err)
	}
	return err
}

// orNotFound maps a missing row onto the failure the operation reports for it.
func orNotFound(err, typed error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return typed
	}
	return err
}

func notify(ctx context.Context, tx repo.Tx, userID int64, typ models.NotificationType, title, msg string) error {
	n := models.Notification{
		UserID:   userID,
		Title:    title,
		Message:  msg,
		Type:     typ,
		Priority: "normal",
	}
	if err := tx.Notifications().Create(ctx, &n); err != nil {
		return fmt.Errorf("notify user %d: %w", userID, err)
	}
	return nil
}
