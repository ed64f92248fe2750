package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePoint queues a point for the next batch. Points written while
// disconnected are dropped.
//
//	client.WritePoint("ws_session",
//	    map[string]string{"outcome": "closed"},
//	    map[string]any{"duration_ms": 5123, "delivered": 4, "pings": 1},
//	    time.Now())
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, ts))
}
