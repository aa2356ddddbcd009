// Package mqtt provides the device-side MQTT client for AWS IoT Core.
//
// The client maintains a single mutual-TLS broker connection and multiplexes
// it across any number of in-process subscribers. Incoming publications are
// fanned out per topic over bounded drop-oldest broadcast channels, so a slow
// consumer never blocks the connection and always reads the freshest
// messages.
//
// # Usage
//
//	client, err := mqtt.New(mqtt.Config{
//		Endpoint:    "example.iot.us-east-1.amazonaws.com",
//		ThingName:   "my-thing",
//		CA:          ca,
//		Certificate: cert,
//		PrivateKey:  key,
//	})
//	if err != nil { ... }
//	if err := client.Connect(ctx); err != nil { ... }
//
//	sub, err := client.Subscribe(ctx, "telemetry/state", mqtt.AtLeastOnce)
//	for {
//		pub, err := sub.Recv(ctx)
//		...
//	}
//
// Subscriptions survive reconnects: the session is non-clean and every
// recorded topic is re-subscribed when the connection is re-established.
package mqtt
