package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-kit/kit/endpoint"
	"golang.org/x/sync/singleflight"

	httptransport "github.com/go-kit/kit/transport/http"

	"github.com/flarexio/userdash/conf"
	"github.com/flarexio/userdash/user"
)

var (
	ErrBaseURLRequired = errors.New("base url required")
)

const DefaultTimeout = 10 * time.Second

// StatusError reports a non-2xx answer from the remote source.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

func NewUserRepository(cfg conf.Remote) (user.Repository, error) {
	if cfg.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}

	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, err
	}

	tgt := base.JoinPath("users")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{
		Timeout: timeout,
	}

	opts := []httptransport.ClientOption{
		httptransport.SetClient(client),
		httptransport.ClientBefore(
			httptransport.SetRequestHeader("Accept", "application/json"),
		),
	}

	repo := &userRepository{
		timeout: timeout,
		list: httptransport.NewClient(
			http.MethodGet, tgt,
			encodeEmptyRequest,
			decodeListResponse,
			opts...,
		).Endpoint(),
		create: httptransport.NewClient(
			http.MethodPost, tgt,
			httptransport.EncodeJSONRequest,
			decodeUserResponse,
			opts...,
		).Endpoint(),
	}

	return repo, nil
}

type userRepository struct {
	list    endpoint.Endpoint
	create  endpoint.Endpoint
	group   singleflight.Group
	timeout time.Duration
}

// ListAll reads the full collection. Concurrent callers share a single
// network read, which outlives any one caller giving up on it.
func (repo *userRepository) ListAll(ctx context.Context) ([]user.User, error) {
	ch := repo.group.DoChan("users", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), repo.timeout)
		defer cancel()

		return repo.list(ctx, nil)
	})

	var result singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result = <-ch:
	}

	if result.Err != nil {
		return nil, result.Err
	}

	users, ok := result.Val.([]user.User)
	if !ok {
		return nil, errors.New("invalid response")
	}

	results := make([]user.User, len(users))
	copy(results, users)
	return results, nil
}

func (repo *userRepository) Create(ctx context.Context, d user.Draft) (*user.User, error) {
	resp, err := repo.create(ctx, d)
	if err != nil {
		return nil, err
	}

	u, ok := resp.(*user.User)
	if !ok {
		return nil, errors.New("invalid response")
	}

	return u, nil
}

func encodeEmptyRequest(_ context.Context, _ *http.Request, _ any) error {
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{resp.StatusCode}
	}
	return nil
}

func decodeListResponse(_ context.Context, resp *http.Response) (any, error) {
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var users []user.User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, err
	}

	if users == nil {
		users = make([]user.User, 0)
	}

	return users, nil
}

func decodeUserResponse(_ context.Context, resp *http.Response) (any, error) {
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var u *user.User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, err
	}

	if u == nil {
		u = new(user.User)
	}

	return u, nil
}
