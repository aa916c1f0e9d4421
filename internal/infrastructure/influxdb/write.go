package influxdb

import (
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteStateChange records a device state mutation in the state history.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Numeric and boolean values land as typed fields, everything else as its
// string rendering, so dashboards can graph what is graphable.
func (c *Client) WriteStateChange(deviceID, stateTypeID string, value any) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{}
	switch v := value.(type) {
	case float64:
		fields["value"] = v
	case int64:
		fields["value"] = v
	case uint64:
		fields["value"] = float64(v)
	case bool:
		fields["value"] = v
	case string:
		fields["value_str"] = v
	default:
		fields["value_str"] = stringify(v)
	}

	point := write.NewPoint(
		"device_state",
		map[string]string{
			"device_id":  deviceID,
			"state_type": stateTypeID,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
// Use for measurements that don't fit the helpers.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

func stringify(v any) string {
	return fmt.Sprintf("%v", v)
}
