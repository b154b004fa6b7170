package persistence

import (
	"context"

	"github.com/go-kit/kit/endpoint"
)

func PurgeEndpoint(p *Persistor) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		if err := p.Purge(ctx); err != nil {
			return nil, err
		}

		return nil, nil
	}
}
