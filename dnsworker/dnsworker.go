// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/sirupsen/logrus"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
	"golang.org/x/time/rate"
)

// ErrSkipped is passed to tasks whose context was done by the time they got
// their turn on a worker.
var ErrSkipped = errors.New("task skipped")

// DnsPool is a (size-limited) pool of workers running DNS probing tasks,
// optionally rate-limited and optionally inside a different network
// namespace.
type DnsPool struct {
	netns    relations.Relation // network namespace to probe from, or nil.
	limiter  *rate.Limiter      // limits task starts, or nil.
	workers  *workerpool.WorkerPool
	stopOnce sync.Once
}

// DnsPoolOption can be passed to New when creating new [DnsPool] objects.
type DnsPoolOption func(*DnsPool)

// New returns a pool of the specified size of DNS workers.
//
// DNS tasks are submitted using [DnsPool.Submit] in form of task functions.
// Task submitters are themselves responsible for capturing the necessary
// context in their task function closure.
//
// To operate a DnsPool in a network namespace different to that of the OS-level
// thread of the caller specify the [InNetworkNamespace] option and pass it a
// filesystem path that must reference a network namespace (such as
// "/proc/666/ns/net").
func New(size int, options ...DnsPoolOption) *DnsPool {
	if size < 1 {
		size = 1
	}
	dnspool := &DnsPool{
		workers: workerpool.New(size),
	}
	for _, opt := range options {
		opt(dnspool)
	}
	return dnspool
}

// InNetworkNamespace optionally runs the tasks of a DnsPool inside the network
// namespace referenced by the specified filesystem path. An empty path keeps
// the current network namespace.
func InNetworkNamespace(netnsref string) DnsPoolOption {
	return func(p *DnsPool) {
		if netnsref == "" {
			return
		}
		p.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// WithRateLimit limits the number of tasks started per second. A limit of zero
// (or less) means no limit.
func WithRateLimit(qps float64) DnsPoolOption {
	return func(p *DnsPool) {
		if qps <= 0 {
			return
		}
		burst := int(qps / 10)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
}

// Submit a task to the pool, where it gets enqueued to be executed on an
// available worker. Submit returns false without enqueuing the task if the
// specified context is done, including while waiting for the rate limiter.
//
// An enqueued task is always called exactly once. It gets a nil error when it
// is to carry out its work. Otherwise, the error tells why it must not: either
// the context was done before the task got its turn (the error then is an
// [ErrSkipped]), or the task could not be switched into the pool's network
// namespace. Once running, a task is not cancelled.
func (p *DnsPool) Submit(ctx context.Context, task func(err error)) bool {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return false
		}
	}
	select {
	case <-ctx.Done():
		return false
	default:
	}
	p.workers.Submit(func() {
		if err := ctx.Err(); err != nil {
			task(fmt.Errorf("%w: %w", ErrSkipped, err))
			return
		}
		p.task(task)
	})
	return true
}

// task runs the specified task function, switching into the pool's network
// namespace first, if necessary.
func (p *DnsPool) task(task func(err error)) {
	if p.netns == nil {
		task(nil)
		return
	}
	// lxkns' ops.Execute runs the function on a separate, locked OS-level
	// thread that gets switched into the network namespace. Sockets created
	// there stay in this network namespace. Switching back afterwards might
	// fail too, but then the task has already run.
	ran := false
	_, err := ops.Execute(func() interface{} {
		ran = true
		task(nil)
		return nil
	}, p.netns)
	if err != nil && !ran {
		logrus.Debugf("cannot switch into network namespace: %s", err.Error())
		task(fmt.Errorf("cannot switch into network namespace: %w", err))
	}
}

// CheckNetworkNamespace checks that the pool's tasks can be switched into the
// pool's network namespace, if any.
func (p *DnsPool) CheckNetworkNamespace() error {
	if p.netns == nil {
		return nil
	}
	_, err := ops.Execute(func() interface{} { return nil }, p.netns)
	return err
}

// StopWait waits for all enqueued tasks to finish, and then shuts down the
// pool. StopWait can safely be called multiple times.
func (p *DnsPool) StopWait() {
	p.stopOnce.Do(func() {
		p.workers.StopWait()
	})
}
