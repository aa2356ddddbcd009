package provision

import (
	"context"

	"github.com/belugaiot/beluga/pkg/errors"
	"github.com/belugaiot/beluga/pkg/iot/mqtt"
)

// Error codes for provisioning operations.
const (
	CodeRejected      = "PROVISION_REJECTED"
	CodeSerialization = "PROVISION_SERIALIZATION"
)

// Client drives the fleet provisioning flows over a connected MQTT client.
type Client struct {
	mqtt   *mqtt.Client
	format Format
}

// New returns a provisioning client speaking the given payload format.
func New(client *mqtt.Client, format Format) *Client {
	return &Client{mqtt: client, format: format}
}

// CreateKeysAndCertificate asks the service to mint a fresh keypair and
// certificate for this device.
func (c *Client) CreateKeysAndCertificate(ctx context.Context) (*CertificateInfo, error) {
	var info CertificateInfo
	err := c.request(ctx, c.format.topicCreate(), nil, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateCertificateFromCSR asks the service to sign the given PEM-encoded
// certificate signing request.
func (c *Client) CreateCertificateFromCSR(ctx context.Context, csr string) (*CertificateInfo, error) {
	payload, err := c.format.marshal(createFromCSRRequest{CertificateSigningRequest: csr})
	if err != nil {
		return nil, err
	}
	var info CertificateInfo
	if err := c.request(ctx, c.format.topicCreateFromCSR(), payload, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// RegisterThing registers the device against a provisioning template using
// the ownership token obtained when the certificate was minted.
func (c *Client) RegisterThing(ctx context.Context, info *CertificateInfo, template string, parameters map[string]string) (*RegisterThingResponse, error) {
	payload, err := c.format.marshal(registerThingRequest{
		OwnershipToken: info.OwnershipToken,
		Parameters:     parameters,
	})
	if err != nil {
		return nil, err
	}
	var resp RegisterThingResponse
	if err := c.request(ctx, c.format.topicRegisterThing(template), payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// request publishes payload on topic and decodes the first reply from the
// paired accepted/rejected topics into out. Provisioning replies carry no
// client token; the per-connection topics make correlation unambiguous.
func (c *Client) request(ctx context.Context, topic string, payload []byte, out any) error {
	accepted := topic + "/accepted"
	rejected := topic + "/rejected"

	sub, err := c.mqtt.SubscribeManyOwned(ctx, []string{accepted, rejected}, mqtt.AtLeastOnce)
	if err != nil {
		return err
	}
	defer sub.Close()

	if err := c.mqtt.Publish(ctx, topic, mqtt.AtLeastOnce, false, payload); err != nil {
		return err
	}

	p, err := sub.Recv(ctx)
	if err != nil {
		return err
	}

	if p.Topic == rejected {
		var rej Error
		if err := c.format.unmarshal(p.Payload, &rej); err != nil {
			return err
		}
		return errors.New(CodeRejected, "provisioning request rejected", &rej)
	}
	return c.format.unmarshal(p.Payload, out)
}
