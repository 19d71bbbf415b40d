// Package shutdown coordinates graceful teardown: components register
// hooks, and on signal the hooks run in reverse registration order
// under a shared deadline.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"timelined/pkg/logger"
)

type hook struct {
	name string
	fn   func(context.Context) error
}

type Coordinator struct {
	mu    sync.Mutex
	hooks []hook
	done  chan struct{}
	once  sync.Once
}

func New() *Coordinator {
	return &Coordinator{done: make(chan struct{})}
}

// Register adds a named teardown hook.
func (c *Coordinator) Register(name string, fn func(context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook{name: name, fn: fn})
}

// Wait blocks until SIGINT or SIGTERM, then runs the hooks.
func (c *Coordinator) Wait(timeout time.Duration) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	logger.Info("shutdown_signal", "signal", s.String())
	c.Trigger(timeout)
}

// Trigger runs the hooks newest-first with a shared deadline. Safe to
// call more than once; only the first call runs anything.
func (c *Coordinator) Trigger(timeout time.Duration) {
	c.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		c.mu.Lock()
		hooks := make([]hook, len(c.hooks))
		copy(hooks, c.hooks)
		c.mu.Unlock()
		for i := len(hooks) - 1; i >= 0; i-- {
			h := hooks[i]
			if err := h.fn(ctx); err != nil {
				logger.Error("shutdown_hook_failed", "hook", h.name, "error", err.Error())
			} else {
				logger.Info("shutdown_hook_done", "hook", h.name)
			}
		}
		close(c.done)
	})
}

// Done is closed once teardown finished.
func (c *Coordinator) Done() <-chan struct{} { return c.done }
