// Package provision implements AWS IoT fleet provisioning over MQTT: minting
// device certificates (fresh keys or from a CSR) and registering the thing
// against a provisioning template. Payloads can travel as JSON or CBOR; the
// reserved topics differ only in their format suffix.
package provision
