// Package mqtt provides MQTT client connectivity for HAP modules.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS validation
//   - Topic subscriptions, restored after reconnect
//   - Last Will and Testament (LWT) so subscribers see an engine crash
//   - Connection health checks
//
// All topics live under <prefix>/<engine>/..., built by Topics.
//
// # Security Considerations
//
//   - Enable TLS (Broker.TLS) when the broker is not on localhost
//   - Anonymous access is only for local development
//
// # Usage
//
//	topics := mqtt.Topics{Prefix: "hap", Engine: "HAP"}
//	client, err := mqtt.Connect(cfg, topics)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(topics.Command(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("command on %s: %s", topic, payload)
//	        return nil
//	    })
//
//	client.Publish(topics.Heartbeat(), payload, 0, false)
package mqtt
