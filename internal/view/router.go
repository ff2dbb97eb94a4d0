// Package view switches between the dashboard sections. Each section is a
// route with a setup step that builds its view model and a teardown step
// that releases whatever the setup registered.
package view

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

var ErrUnknownRoute = errors.New("unknown route")

type Route struct {
	Setup    func(ctx context.Context) (any, error)
	Teardown func()
}

type Router struct {
	mu      sync.Mutex
	routes  map[string]Route
	current string
	logger  *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{routes: make(map[string]Route), logger: logger.Named("view")}
}

// Register adds or replaces a route.
func (r *Router) Register(name string, route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[name] = route
}

// Navigate tears down the active route and sets up name, returning its view
// model. Navigating to the active route runs both steps again. An unknown
// name leaves the active route in place. When setup fails no route is
// active afterwards.
func (r *Router) Navigate(ctx context.Context, name string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, ok := r.routes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	if r.current != "" {
		if prev := r.routes[r.current]; prev.Teardown != nil {
			prev.Teardown()
		}
		r.logger.Debug("route torn down", zap.String("route", r.current))
		r.current = ""
	}

	var model any
	if next.Setup != nil {
		var err error
		model, err = next.Setup(ctx)
		if err != nil {
			r.logger.Warn("route setup failed", zap.String("route", name), zap.Error(err))
			return nil, err
		}
	}
	r.current = name
	r.logger.Debug("route active", zap.String("route", name))
	return model, nil
}

// Leave tears down the active route, if any.
func (r *Router) Leave() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == "" {
		return
	}
	if prev := r.routes[r.current]; prev.Teardown != nil {
		prev.Teardown()
	}
	r.current = ""
}

func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Routes lists registered route names in sorted order.
func (r *Router) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
