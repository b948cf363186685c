// Package notify publishes pipeline signals on the message bus so shells
// and other subscribers can surface state, results, and errors.
package notify

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/typeless-app/typeless-core/internal/bus"
	"github.com/typeless-app/typeless-core/internal/pipeline"
	"github.com/typeless-app/typeless-core/internal/protocol"
)

// BusNotifier implements pipeline.Notifier over NATS. Publishes are
// best-effort: a full buffer or closed connection is logged and dropped,
// never fed back into the pipeline.
type BusNotifier struct {
	client *bus.Client
	log    *slog.Logger
}

func NewBusNotifier(client *bus.Client, log *slog.Logger) *BusNotifier {
	return &BusNotifier{
		client: client,
		log:    log.With(slog.String("component", "notify")),
	}
}

func (n *BusNotifier) StateChanged(state pipeline.State) {
	n.publish(protocol.SubjectState, protocol.StateChange{
		State:     string(state),
		Timestamp: time.Now().UTC(),
	})
}

func (n *BusNotifier) ResultReady(text string) {
	n.publish(protocol.SubjectResult, protocol.Result{
		Text:      text,
		Timestamp: time.Now().UTC(),
	})
}

func (n *BusNotifier) ErrorOccurred(message string) {
	n.publish(protocol.SubjectError, protocol.PipelineError{
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func (n *BusNotifier) publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		n.log.Warn("failed to marshal notification", slog.String("subject", subject), slog.String("error", err.Error()))
		return
	}
	if err := n.client.Conn().Publish(subject, data); err != nil {
		n.log.Warn("failed to publish notification", slog.String("subject", subject), slog.String("error", err.Error()))
	}
}
