package settings

import "sync"

// Provider hands out one Service for the lifetime of the process. The
// Service is constructed on first use, exactly once, even under concurrent
// first access.
type Provider struct {
	once sync.Once
	open func() (*Service, error)

	svc *Service
	err error
}

func NewProvider(open func() (*Service, error)) *Provider {
	return &Provider{open: open}
}

// Get returns the shared Service, or the error its construction failed with.
func (p *Provider) Get() (*Service, error) {
	p.once.Do(func() {
		p.svc, p.err = p.open()
	})
	return p.svc, p.err
}
