// Package mqtt provides MQTT client connectivity for the La Marzocco bridge.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Gray Logic uses MQTT as the internal message bus connecting the Core to
// protocol bridges. This bridge is one of those: machine telemetry flows
// out under graylogic/state/coffee/... and graylogic/telemetry/coffee/...,
// and commands flow in under graylogic/command/coffee/...
//
//	Gray Logic Core ↔ MQTT Broker ↔ Coffee Bridge ↔ La Marzocco cloud
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to machine commands from the bus
//	err = client.Subscribe(mqtt.Topics{}.AllCommands("MR123456"), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish machine state
//	topic := mqtt.Topics{}.State("MR123456")
//	client.Publish(topic, []byte(`{"power":true}`), 1, true)
package mqtt
