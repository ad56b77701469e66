// Package container provides the application's dependency injection
// container, a keyed layer over samber/do.
//
// Recipes are declared up front and built lazily: nothing runs until the
// first Make. A recipe may forward-reference another one through the
// Resolver it receives.
//
//	c := container.New()
//	c.Singleton(DriverKey, func(r container.Resolver) (any, error) {
//	    return database.NewDriver(dsn, user, pass), nil
//	})
//	c.Singleton(ConnectionKey, func(r container.Resolver) (any, error) {
//	    drv, err := container.Resolve[*database.Driver](r, DriverKey)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return database.NewConn(drv), nil
//	})
package container

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/do/v2"
)

var (
	// ErrMissingBinding is returned by Make for a key with no recipe.
	ErrMissingBinding = errors.New("container: missing binding")
	// ErrBuildFailed wraps an error returned by a recipe or a configurer.
	ErrBuildFailed = errors.New("container: build failed")
	// ErrCircularBinding is returned when recipes reference each other in a loop.
	ErrCircularBinding = errors.New("container: circular binding")
	// ErrTypeMismatch is returned by Resolve when the instance has another type.
	ErrTypeMismatch = errors.New("container: type mismatch")
)

// Resolver builds instances by key.
type Resolver interface {
	Make(key string) (any, error)
	Has(key string) bool
}

// Factory is a recipe that produces a service instance.
type Factory func(r Resolver) (any, error)

// Configurer is applied to a freshly built instance, in declared order.
type Configurer func(instance any) error

// Extension decorates a freshly built instance and may replace it.
type Extension func(r Resolver, instance any) (any, error)

type recipe struct {
	factory    Factory
	singleton  bool
	configure  []Configurer
	extensions []Extension
}

// registry is shared by a container and all of its scopes. do owns the
// instances; the registry owns what to build and how to finish it.
type registry struct {
	mu      sync.RWMutex
	recipes map[string]*recipe
	scopes  atomic.Int64
}

// Container resolves recipes and caches singletons for its scope.
type Container struct {
	reg      *registry
	injector do.Injector
}

// New creates an empty container.
func New() *Container {
	return &Container{
		reg:      &registry{recipes: map[string]*recipe{}},
		injector: do.New(),
	}
}

// NewScope returns a container that shares every recipe with c but keeps
// its own singleton cache. Recipes declared on c after the scope is
// created resolve through c.
func (c *Container) NewScope() *Container {
	n := c.reg.scopes.Add(1)
	scope := &Container{reg: c.reg, injector: c.injector.Scope(fmt.Sprintf("scope-%d", n))}

	c.reg.mu.RLock()
	defer c.reg.mu.RUnlock()
	for key, rec := range c.reg.recipes {
		if rec.factory != nil {
			scope.declare(key, rec.singleton)
		}
	}
	return scope
}

// Bind registers a factory under key. Each Make builds a new instance.
func (c *Container) Bind(key string, factory Factory) {
	c.set(key, factory, false)
}

// Singleton registers a factory whose first successful result is cached
// for the rest of the scope.
func (c *Container) Singleton(key string, factory Factory) {
	c.set(key, factory, true)
}

func (c *Container) set(key string, factory Factory, singleton bool) {
	c.reg.mu.Lock()
	rec := c.reg.recipe(key)
	rec.factory = factory
	rec.singleton = singleton
	c.reg.mu.Unlock()

	c.declare(key, singleton)
}

// declare hands key to do. The provider looks the recipe up at build time,
// so configurers added after declaration still apply.
func (c *Container) declare(key string, singleton bool) {
	provider := func(i do.Injector) (any, error) {
		rec, ok := c.reg.lookup(key)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingBinding, key)
		}
		return c.build(key, rec, &resolver{c: c, injector: i})
	}

	// Override rather than Provide: rebinding a key replaces it.
	if singleton {
		do.OverrideNamed[any](c.injector, key, provider)
	} else {
		do.OverrideNamedTransient[any](c.injector, key, provider)
	}
}

func (r *registry) recipe(key string) *recipe {
	rec := r.recipes[key]
	if rec == nil {
		rec = &recipe{}
		r.recipes[key] = rec
	}
	return rec
}

func (r *registry) lookup(key string) (recipe, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.recipes[key]
	if !ok || rec.factory == nil {
		return recipe{}, false
	}

	// Copy so a concurrent Configure cannot race with the build.
	out := *rec
	out.configure = append([]Configurer(nil), rec.configure...)
	out.extensions = append([]Extension(nil), rec.extensions...)
	return out, true
}

// Configure adds configurers for key. The recipe itself may be declared
// before or after; configurers run after every fresh build.
func (c *Container) Configure(key string, fns ...Configurer) {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()

	rec := c.reg.recipe(key)
	rec.configure = append(rec.configure, fns...)
}

// Extend adds a decorator for key, run after the configurers.
func (c *Container) Extend(key string, ext Extension) {
	c.reg.mu.Lock()
	defer c.reg.mu.Unlock()

	rec := c.reg.recipe(key)
	rec.extensions = append(rec.extensions, ext)
}

// Has reports whether a factory has been bound to key.
func (c *Container) Has(key string) bool {
	_, ok := c.reg.lookup(key)
	return ok
}

// Make resolves the service registered under key.
func (c *Container) Make(key string) (any, error) {
	return c.invoke(c.injector, key)
}

// invoke resolves key through i. Inside a factory i is the injector do
// handed to the provider, which carries the chain used for cycle checks.
func (c *Container) invoke(i do.Injector, key string) (any, error) {
	if !c.Has(key) {
		return nil, fmt.Errorf("%w: %q", ErrMissingBinding, key)
	}

	instance, err := do.InvokeNamed[any](i, key)
	if err != nil {
		return nil, classify(key, err)
	}
	return instance, nil
}

func (c *Container) build(key string, rec recipe, r Resolver) (any, error) {
	instance, err := rec.factory(r)
	if err != nil {
		return nil, wrapBuild(key, err)
	}

	for _, fn := range rec.configure {
		if err := fn(instance); err != nil {
			return nil, wrapBuild(key, err)
		}
	}

	for _, ext := range rec.extensions {
		instance, err = ext(r, instance)
		if err != nil {
			return nil, wrapBuild(key, err)
		}
	}

	return instance, nil
}

// classify maps what comes back from do onto the package's errors.
func classify(key string, err error) error {
	switch {
	case classified(err):
		return fmt.Errorf("container: resolve %q: %w", key, err)
	case matches(err, do.ErrCircularDependency), matches(err, ErrCircularBinding):
		return fmt.Errorf("%w: %q: %v", ErrCircularBinding, key, err)
	case matches(err, do.ErrServiceNotFound), matches(err, ErrMissingBinding):
		return fmt.Errorf("%w: %q: %v", ErrMissingBinding, key, err)
	default:
		return fmt.Errorf("%w: %q: %w", ErrBuildFailed, key, err)
	}
}

// matches also compares messages, for errors do rebuilds from the
// sentinel's text instead of wrapping it.
func matches(err, target error) bool {
	return errors.Is(err, target) || strings.Contains(err.Error(), target.Error())
}

func classified(err error) bool {
	return errors.Is(err, ErrMissingBinding) || errors.Is(err, ErrCircularBinding) ||
		errors.Is(err, ErrBuildFailed) || errors.Is(err, ErrTypeMismatch)
}

// wrapBuild leaves errors from nested resolutions untouched so the
// innermost cause keeps its classification.
func wrapBuild(key string, err error) error {
	if classified(err) {
		return err
	}
	return fmt.Errorf("%w: %q: %w", ErrBuildFailed, key, err)
}

// resolver is the Resolver handed to factories.
type resolver struct {
	c        *Container
	injector do.Injector
}

func (r *resolver) Make(key string) (any, error) { return r.c.invoke(r.injector, key) }
func (r *resolver) Has(key string) bool { return r.c.Has(key) }

// Resolve makes key and asserts the result to T.
func Resolve[T any](r Resolver, key string) (T, error) {
	var zero T

	instance, err := r.Make(key)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T, want %T", ErrTypeMismatch, key, instance, zero)
	}
	return typed, nil
}

// MustResolve is Resolve that panics on error. Use it only during startup.
func MustResolve[T any](r Resolver, key string) T {
	v, err := Resolve[T](r, key)
	if err != nil {
		panic(err)
	}
	return v
}
