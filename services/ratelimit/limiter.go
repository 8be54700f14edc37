// Package ratelimit throttles requests per client key.
package ratelimit

import (
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/coding7860/sparkminds-backend/core"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter allows max requests per window for each key, refilling evenly over the window.
type Limiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
	now      func() time.Time
}

func New(max int, window time.Duration) (*Limiter, error) {
	err := vala.BeginValidation().Validate(
		vala.GreaterThan(max, 0, "max"),
		vala.GreaterThan(int(window), 0, "window"),
	).Check()
	if err != nil {
		return nil, errors.Wrap(err, "creating rate limiter")
	}
	return &Limiter{
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}, nil
}

// NewFromConfig builds the auth limiter.
func NewFromConfig(conf *core.Config) (*Limiter, error) {
	return New(conf.RateLimit.AuthMaxRequests, conf.RateLimit.AuthWindow)
}

// Allow reports whether a request for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Reset forgets every key.
func (l *Limiter) Reset() {
	l.mu.Lock()
	l.visitors = make(map[string]*visitor)
	l.mu.Unlock()
}

// Sweep drops the keys not seen within idle and returns how many were dropped.
func (l *Limiter) Sweep(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int
	cutoff := l.now().Add(-idle)
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
			n++
		}
	}
	return n
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Janitor sweeps a Limiter on a cron schedule.
type Janitor struct {
	cron *cron.Cron
}

func NewJanitor(l *Limiter, spec string, idle time.Duration, logger core.Logger) (*Janitor, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := l.Sweep(idle); n > 0 && logger != nil {
			logger.Debug("rate limiter sweep", map[string]interface{}{"dropped": n})
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scheduling rate limiter sweep %q", spec)
	}
	return &Janitor{cron: c}, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop stops the schedule and waits for a running sweep.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}
