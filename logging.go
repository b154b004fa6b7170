package userdash

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/flarexio/userdash/user"
)

func LoggingMiddleware(log *zap.Logger) ServiceMiddleware {
	return func(next Service) Service {
		return &loggingMiddleware{
			log.With(
				zap.String("service", "userdash"),
				zap.String("middleware", "logging"),
			),
			next,
		}
	}
}

type loggingMiddleware struct {
	log  *zap.Logger
	next Service
}

func (mw *loggingMiddleware) FetchAll(ctx context.Context) error {
	log := mw.log.With(
		zap.String("action", "fetch_all"),
	)

	if err := mw.next.FetchAll(ctx); err != nil {
		log.Error(err.Error())
		return err
	}

	state := mw.next.State()
	log.Info("users fetched",
		zap.Int("count", len(state.Users)),
		zap.Bool("data_loaded", state.DataLoaded),
	)
	return nil
}

func (mw *loggingMiddleware) CreateRemote(ctx context.Context, d user.Draft) (*user.User, error) {
	log := mw.log.With(
		zap.String("action", "create_remote"),
		zap.String("username", d.Username),
	)

	u, err := mw.next.CreateRemote(ctx, d)
	if err != nil {
		log.Error(err.Error())
		return nil, err
	}

	log.Info("user created", zap.Int("user_id", u.ID))
	return u, nil
}

func (mw *loggingMiddleware) Add(d user.Draft) (user.User, error) {
	log := mw.log.With(
		zap.String("action", "add"),
	)

	u, err := mw.next.Add(d)
	if err != nil {
		log.Error(err.Error())
		return u, err
	}

	log.Info("user added", zap.Int("user_id", u.ID))
	return u, nil
}

func (mw *loggingMiddleware) Edit(u user.User) error {
	log := mw.log.With(
		zap.String("action", "edit"),
		zap.Int("user_id", u.ID),
	)

	err := mw.next.Edit(u)
	switch {
	case errors.Is(err, user.ErrNameEmailRequired):
		log.Warn(err.Error())
		return err

	case errors.Is(err, user.ErrUserNotFound):
		log.Debug(err.Error())
		return err

	case err != nil:
		log.Error(err.Error())
		return err
	}

	log.Info("user edited")
	return nil
}

func (mw *loggingMiddleware) Update(p user.Patch) error {
	log := mw.log.With(
		zap.String("action", "update"),
		zap.Int("user_id", p.ID),
	)

	if err := mw.next.Update(p); err != nil {
		log.Debug(err.Error())
		return err
	}

	log.Info("user updated")
	return nil
}

func (mw *loggingMiddleware) Remove(id int) {
	mw.next.Remove(id)

	mw.log.Info("user removed",
		zap.String("action", "remove"),
		zap.Int("user_id", id),
	)
}

func (mw *loggingMiddleware) Hydrate(state user.State) {
	mw.next.Hydrate(state)

	mw.log.Info("state rehydrated",
		zap.String("action", "hydrate"),
		zap.Int("count", len(state.Users)),
	)
}

func (mw *loggingMiddleware) State() user.State {
	return mw.next.State()
}

func (mw *loggingMiddleware) User(id int) (*user.User, error) {
	return mw.next.User(id)
}

func (mw *loggingMiddleware) Search(query string) []user.User {
	return mw.next.Search(query)
}

func (mw *loggingMiddleware) Subscribe(fn Listener) func() {
	return mw.next.Subscribe(fn)
}

func (mw *loggingMiddleware) Close() {
	mw.next.Close()
	mw.log.Info("store closed")
}
