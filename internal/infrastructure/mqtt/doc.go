// Package mqtt provides the MQTT client Acre Intrusion Core uses to reach
// the intrusion panel gateway.
//
// This package manages:
//   - Connection to the broker with auto-reconnect and subscription restore
//   - Publishing with QoS and retain control
//   - Last Will and Testament on acre/{site}/system/status
//   - Topic builders for the acre/{site}/... hierarchy
//
// # Topics
//
//	acre/{site}/system/status         retained online/offline status of the core
//	acre/{site}/area/{id}/state       retained area state from the gateway
//	acre/{site}/area/{id}/set         mode change commands to the gateway
//
// # Security Considerations
//
//   - Enable TLS (mqtt.broker.tls) outside a trusted LAN
//   - Mode change payloads carry the acting identity, never the code
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Site.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllAreaStates(), 1,
//	    func(topic string, payload []byte) error {
//	        return handleState(topic, payload)
//	    })
package mqtt
