package notifier

import (
	"encoding/json"

	"github.com/nerrad567/hearth-core/internal/device"
	"github.com/nerrad567/hearth-core/internal/infrastructure/mqtt"
)

// Logger defines the logging interface used by the Notifier.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher is the MQTT surface the notifier publishes through. Publishing
// is fire-and-forget; the publisher owns delivery, drop accounting and QoS.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool)
}

// StateHistory records device state mutations for later querying.
type StateHistory interface {
	WriteStateChange(deviceID, stateTypeID string, value any)
}

// Notifier bridges orchestrator notifications to the outside world: JSON
// payloads on MQTT topics for the notification servers, and state changes
// into the time-series history.
//
// Both sinks are optional; a nil sink is skipped. Sink failures are logged
// and never propagate back into the orchestrator.
type Notifier struct {
	logger  Logger
	mqtt    Publisher
	history StateHistory
	topics  mqtt.Topics
}

// New creates a notifier over the given sinks. Either may be nil.
func New(publisher Publisher, history StateHistory) *Notifier {
	return &Notifier{
		logger:  noopLogger{},
		mqtt:    publisher,
		history: history,
	}
}

// SetLogger sets the logger for the notifier.
func (n *Notifier) SetLogger(logger Logger) {
	n.logger = logger
}

// Loaded publishes the one-shot loaded announcement.
func (n *Notifier) Loaded() {
	n.publish(n.topics.Loaded(), map[string]any{"loaded": true}, false)
}

// DevicesDiscovered publishes one discovery batch.
func (n *Notifier) DevicesDiscovered(classID device.ClassID, descriptors []device.Descriptor) {
	type descriptorPayload struct {
		ID     device.DescriptorID `json:"id"`
		Title  string              `json:"title"`
		Params device.ParamList    `json:"params"`
	}
	out := make([]descriptorPayload, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, descriptorPayload{ID: d.ID, Title: d.Title, Params: d.Params})
	}
	n.publish(n.topics.Discovery(classID.String()), map[string]any{
		"class_id":    classID,
		"descriptors": out,
	}, false)
}

// DeviceSetupFinished publishes a device's setup outcome.
func (n *Notifier) DeviceSetupFinished(d *device.Device, result device.Error) {
	n.publish(n.topics.DeviceSetup(d.ID().String()), map[string]any{
		"device_id": d.ID(),
		"name":      d.Name(),
		"result":    result.String(),
	}, false)
}

// DeviceStateChanged publishes the new state value (retained, so late
// subscribers see the current state) and records it in the history.
func (n *Notifier) DeviceStateChanged(d *device.Device, stateTypeID device.StateTypeID, value device.Value) {
	n.publish(n.topics.DeviceState(d.ID().String()), map[string]any{
		"device_id":  d.ID(),
		"state_type": stateTypeID,
		"value":      value,
	}, true)

	if n.history != nil {
		n.history.WriteStateChange(d.ID().String(), stateTypeID.String(), value.Interface())
	}
}

// EventTriggered publishes a triggered event.
func (n *Notifier) EventTriggered(event device.Event) {
	n.publish(n.topics.Event(event.EventTypeID.String()), map[string]any{
		"event_type":    event.EventTypeID,
		"device_id":     event.DeviceID,
		"params":        event.Params,
		"state_derived": event.StateDerived,
	}, false)
}

// ActionExecutionFinished publishes an async action completion.
func (n *Notifier) ActionExecutionFinished(actionID device.ActionID, result device.Error) {
	n.publish(n.topics.Action(actionID.String()), map[string]any{
		"action_id": actionID,
		"result":    result.String(),
	}, false)
}

// PairingFinished publishes a pairing outcome.
func (n *Notifier) PairingFinished(tx device.PairingTransactionID, result device.Error, deviceID device.DeviceID) {
	payload := map[string]any{
		"transaction_id": tx,
		"result":         result.String(),
	}
	if !deviceID.IsZero() {
		payload["device_id"] = deviceID
	}
	n.publish(n.topics.Pairing(tx.String()), payload, false)
}

// publish marshals and hands one payload to the publisher, which delivers
// (or drops) it on its own.
func (n *Notifier) publish(topic string, payload any, retained bool) {
	if n.mqtt == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("marshalling notification failed", "topic", topic, "error", err)
		return
	}
	n.mqtt.Publish(topic, data, retained)
}
