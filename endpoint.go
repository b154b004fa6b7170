package userdash

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"

	"github.com/flarexio/userdash/user"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
)

type EndpointSet struct {
	FetchAll     endpoint.Endpoint
	CreateRemote endpoint.Endpoint
	Add          endpoint.Endpoint
	Edit         endpoint.Endpoint
	Update       endpoint.Endpoint
	Remove       endpoint.Endpoint
	State        endpoint.Endpoint
	User         endpoint.Endpoint
	Search       endpoint.Endpoint
}

func NewEndpointSet(svc Service) EndpointSet {
	return EndpointSet{
		FetchAll:     FetchAllEndpoint(svc),
		CreateRemote: CreateRemoteEndpoint(svc),
		Add:          AddEndpoint(svc),
		Edit:         EditEndpoint(svc),
		Update:       UpdateEndpoint(svc),
		Remove:       RemoveEndpoint(svc),
		State:        StateEndpoint(svc),
		User:         UserEndpoint(svc),
		Search:       SearchEndpoint(svc),
	}
}

type FetchAllRequest struct {
	Force bool
}

type FetchAllResponse struct {
	Skipped bool       `json:"skipped"`
	State   user.State `json:"state"`
}

// FetchAllEndpoint skips the remote read once the data is loaded, unless
// the request forces it.
func FetchAllEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(FetchAllRequest)
		if !ok {
			return nil, ErrInvalidRequest
		}

		if !req.Force && svc.State().DataLoaded {
			return FetchAllResponse{Skipped: true, State: svc.State()}, nil
		}

		if err := svc.FetchAll(ctx); err != nil {
			return nil, err
		}

		return FetchAllResponse{State: svc.State()}, nil
	}
}

func CreateRemoteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(user.Draft)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.CreateRemote(ctx, req)
	}
}

func AddEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(user.Draft)
		if !ok {
			return nil, ErrInvalidRequest
		}

		u, err := svc.Add(req)
		if err != nil {
			return nil, err
		}

		return &u, nil
	}
}

func EditEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(user.User)
		if !ok {
			return nil, ErrInvalidRequest
		}

		if err := svc.Edit(req); err != nil {
			return nil, err
		}

		return svc.User(req.ID)
	}
}

func UpdateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		req, ok := request.(user.Patch)
		if !ok {
			return nil, ErrInvalidRequest
		}

		if err := svc.Update(req); err != nil {
			return nil, err
		}

		return svc.User(req.ID)
	}
}

func RemoveEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		id, ok := request.(int)
		if !ok {
			return nil, ErrInvalidRequest
		}

		svc.Remove(id)
		return nil, nil
	}
}

func StateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		return svc.State(), nil
	}
}

func UserEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		id, ok := request.(int)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.User(id)
	}
}

func SearchEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request any) (response any, err error) {
		query, ok := request.(string)
		if !ok {
			return nil, ErrInvalidRequest
		}

		return svc.Search(query), nil
	}
}
