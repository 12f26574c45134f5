package core

import (
	"context"

	"mc.projecter/config"
)

type ServiceContext struct {
	Context context.Context
	Config  *config.Config
	Metrics *Metrics
}

// WithContext returns a copy bound to ctx, used to tie work to a single request
func (sc ServiceContext) WithContext(ctx context.Context) *ServiceContext {
	sc.Context = ctx
	return &sc
}
