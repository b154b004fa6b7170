package pubsub

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/flarexio/userdash"
	"github.com/flarexio/userdash/user"
)

const DefaultSubject = "userdash.state"

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type StateMessage struct {
	Revision uint64     `json:"revision"`
	State    user.State `json:"state"`
}

// StateListener broadcasts every state change on subject. Publish
// failures are logged and dropped.
func StateListener(pub Publisher, subject string, log *zap.Logger) userdash.Listener {
	if subject == "" {
		subject = DefaultSubject
	}

	log = log.With(
		zap.String("infra", "pubsub"),
		zap.String("subject", subject),
	)

	return func(revision uint64, state user.State) {
		msg := StateMessage{
			Revision: revision,
			State:    state,
		}

		data, err := json.Marshal(&msg)
		if err != nil {
			log.Error(err.Error())
			return
		}

		if err := pub.Publish(subject, data); err != nil {
			log.Error(err.Error(), zap.Uint64("revision", revision))
		}
	}
}
