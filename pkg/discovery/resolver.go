package discovery

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Finder lists the live instances of a service.
type Finder interface {
	Discover(ctx context.Context, serviceName string) ([]*ServiceInstance, error)
}

// Resolver turns registrations of the REST collaborator into a base URL.
// Scheme and path come from the fallback URL, which is also returned when
// nothing is registered.
type Resolver struct {
	finder   Finder
	service  string
	fallback *url.URL
	ttl      time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	instances []*ServiceInstance
	fetched   time.Time
	next      atomic.Uint64
	now       func() time.Time
}

func NewResolver(finder Finder, service, fallback string, logger *zap.Logger) (*Resolver, error) {
	u, err := url.Parse(fallback)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		finder:   finder,
		service:  service,
		fallback: u,
		ttl:      10 * time.Second,
		logger:   logger.Named("resolver"),
		now:      time.Now,
	}, nil
}

func (r *Resolver) lookup(ctx context.Context) []*ServiceInstance {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.fetched.IsZero() && r.now().Sub(r.fetched) < r.ttl {
		return r.instances
	}

	lctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	instances, err := r.finder.Discover(lctx, r.service)
	if err != nil {
		r.logger.Warn("Discovery failed, keeping previous instances", zap.String("service", r.service), zap.Error(err))
		return r.instances
	}
	if len(instances) == 0 && len(r.instances) > 0 {
		r.logger.Info("No registered instances, using default address",
			zap.String("service", r.service),
			zap.String("address", r.fallback.String()))
	}
	r.instances = instances
	r.fetched = r.now()
	return instances
}

// BaseURL picks registered instances round-robin.
func (r *Resolver) BaseURL(ctx context.Context) string {
	instances := r.lookup(ctx)
	if len(instances) == 0 {
		return r.fallback.String()
	}
	inst := instances[r.next.Add(1)%uint64(len(instances))]
	u := *r.fallback
	u.Host = inst.Addr()
	return u.String()
}
