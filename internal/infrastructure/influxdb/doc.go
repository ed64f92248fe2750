// Package influxdb records Holocron telemetry in InfluxDB 2.x.
//
// It wraps the official influxdb-client-go v2 library. Writes go through the
// non-blocking batched write API, so callers on hot paths (the event relay,
// WebSocket session teardown) never wait on the network.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.SetOnError(func(err error) { logger.Warn("influx write", "error", err) })
//	client.WritePoint("human_created",
//	    map[string]string{"home_planet": "Tatooine"},
//	    map[string]any{"episodes": 3},
//	    time.Now())
//
// Write errors are delivered asynchronously through the SetOnError callback.
// Connection and health check errors are returned directly.
package influxdb
