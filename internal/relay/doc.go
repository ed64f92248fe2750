// Package relay mirrors Holocron domain events to external systems.
//
// A Relay is an ordinary event bus subscriber. Each created human is
// published to MQTT and recorded as an InfluxDB point. The relay only
// consumes: nothing it receives is fed back into the bus.
//
// The relay also implements api.SessionRecorder so closed WebSocket sessions
// are recorded as ws_session points.
package relay
