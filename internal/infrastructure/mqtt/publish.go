package mqtt

// maxPayloadSize caps a single notification at 1MB. Discovery batches are
// the largest payloads the hub produces and stay far below this; anything
// bigger indicates a runaway plugin, not a legitimate notification.
const maxPayloadSize = 1 << 20

// Publish sends one notification payload with the configured QoS.
//
// Fire-and-forget: the call returns immediately, delivery is confirmed in
// the background, and failures increment the drop counter instead of
// surfacing to the caller — the notifier must never stall the
// orchestrator's notification drain behind a slow broker.
//
// Retained messages should be reserved for state topics, where a late
// subscriber wants the current value; events and completions are not
// retained.
func (c *Client) Publish(topic string, payload []byte, retained bool) {
	if topic == "" {
		c.drop(topic, "empty topic")
		return
	}
	if len(payload) > maxPayloadSize {
		c.drop(topic, "payload too large")
		return
	}
	if !c.IsConnected() {
		c.drop(topic, "broker not connected")
		return
	}

	token := c.client.Publish(topic, c.qos, retained, payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			c.drop(topic, "confirmation timeout")
			return
		}
		if err := token.Error(); err != nil {
			c.drop(topic, err.Error())
		}
	}()
}

// drop counts and logs a discarded notification.
func (c *Client) drop(topic, reason string) {
	total := c.dropped.Add(1)
	c.logger.Warn("notification dropped",
		"topic", topic,
		"reason", reason,
		"dropped_total", total,
	)
}
