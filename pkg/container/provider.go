package container

// ServiceProvider contributes configuration for services that are defined
// elsewhere, without building them.
type ServiceProvider interface {
	// Definitions maps a service key to configurers applied after the
	// service is built.
	Definitions() map[string][]Configurer
	// Extensions maps a service key to a decorator.
	Extensions() map[string]Extension
}

// Register applies every provider's definitions and extensions.
func (c *Container) Register(providers ...ServiceProvider) {
	for _, p := range providers {
		for key, fns := range p.Definitions() {
			c.Configure(key, fns...)
		}
		for key, ext := range p.Extensions() {
			c.Extend(key, ext)
		}
	}
}
