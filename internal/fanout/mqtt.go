package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/xgparam-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// Publisher is the part of the MQTT client the sink needs.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// MQTTSink publishes retained parameter state and table resets.
type MQTTSink struct {
	pub    Publisher
	topics mqtt.Topics
}

// NewMQTTSink creates a sink publishing under topics.
func NewMQTTSink(pub Publisher, topics mqtt.Topics) *MQTTSink {
	return &MQTTSink{pub: pub, topics: topics}
}

// Name implements Sink.
func (s *MQTTSink) Name() string { return "mqtt" }

// Deliver implements Sink. Parameter events go to the retained state
// topic of their address; table resets go to the category's reset topic
// and are not retained.
func (s *MQTTSink) Deliver(_ context.Context, ev Event) error {
	if ev.Kind == KindTableReset {
		return s.pub.PublishJSON(s.topics.Reset(ev.Category), ev, false)
	}
	return s.pub.PublishJSON(s.topics.State(ev.Category, ev.Key.Hex()), ev, true)
}

// Command is the payload of a command topic. Exactly one of Value (raw)
// and Display must be set.
type Command struct {
	Address string   `json:"address"`
	Value   *uint32  `json:"value,omitempty"`
	Display *float64 `json:"display,omitempty"`
}

// CommandError is published when a command is rejected.
type CommandError struct {
	Topic   string    `json:"topic"`
	Address string    `json:"address,omitempty"`
	Error   string    `json:"error"`
	Time    time.Time `json:"time"`
}

// CommandClient is the part of the MQTT client the command handler needs.
type CommandClient interface {
	Publisher
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// CommandHandler applies parameter writes received over MQTT.
type CommandHandler struct {
	reg    *xgparam.Registry
	client CommandClient
	topics mqtt.Topics
	qos    byte
	logger Logger
}

// NewCommandHandler creates a handler writing into reg.
func NewCommandHandler(reg *xgparam.Registry, client CommandClient, topics mqtt.Topics, qos byte) *CommandHandler {
	return &CommandHandler{
		reg:    reg,
		client: client,
		topics: topics,
		qos:    qos,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for applied and rejected commands.
func (h *CommandHandler) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	h.logger = l
}

// Start subscribes to every command topic.
func (h *CommandHandler) Start() error {
	if err := h.client.Subscribe(h.topics.AllCommands(), h.qos, h.Handle); err != nil {
		return fmt.Errorf("subscribing to commands: %w", err)
	}
	return nil
}

// Handle is the MQTT message handler. Rejected commands are reported on
// the command error topic; the returned error is logged by the client.
func (h *CommandHandler) Handle(topic string, payload []byte) error {
	category, ok := h.topics.CommandCategory(topic)
	if !ok {
		return nil
	}

	var cmd Command
	err := json.Unmarshal(payload, &cmd)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	} else {
		err = h.Execute(category, cmd)
	}
	if err == nil {
		h.logger.Debug("mqtt command applied", "category", category, "address", cmd.Address)
		return nil
	}

	report := CommandError{Topic: topic, Address: cmd.Address, Error: err.Error(), Time: time.Now().UTC()}
	if perr := h.client.PublishJSON(h.topics.CommandError(), report, false); perr != nil {
		return errors.Join(err, perr)
	}
	return err
}

// Execute validates cmd and applies it through Registry.Do. Every
// observer is notified, the MIDI bridge included.
func (h *CommandHandler) Execute(category string, cmd Command) error {
	cat, err := xgparam.ParseCategory(category)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	key, err := xgparam.ParseAddressKey(cmd.Address)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if (cmd.Value == nil) == (cmd.Display == nil) {
		return fmt.Errorf("%w: exactly one of value and display is required", ErrInvalidCommand)
	}
	if c, _, err := xgparam.Route(key); err != nil || c != cat {
		return fmt.Errorf("%w: %s is not a %s address", ErrCategoryMismatch, key, cat)
	}

	return h.reg.Do(func() error {
		p := h.reg.FindParameter(key)
		if p == nil {
			return fmt.Errorf("%w: %s", ErrUnknownParameter, key)
		}
		if cmd.Value != nil {
			return p.SetValue(*cmd.Value, nil)
		}
		return p.SetDisplayValue(*cmd.Display, nil)
	})
}
