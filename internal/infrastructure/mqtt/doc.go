// Package mqtt publishes Holocron events to an MQTT broker.
//
// The client wraps github.com/eclipse/paho.mqtt.golang and is publish-only:
// Holocron mirrors domain events outward and never consumes from the broker.
//
// Connection management:
//   - Auto-reconnect with exponential backoff between the configured delays
//   - Last Will and Testament on <prefix>/status so consumers notice a crash
//   - Retained online/offline status on connect and graceful close
//
// Topic layout, rooted at mqtt.topic_prefix:
//
//	<prefix>/status                 retained online/offline status
//	<prefix>/events/<event_name>    one message per domain event
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT, logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(client.Topics().Event("human_created"), human)
package mqtt
