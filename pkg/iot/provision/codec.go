package provision

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/belugaiot/beluga/pkg/errors"
)

// Format selects the wire encoding for provisioning payloads. The reserved
// topics carry the format name as their last path segment, so a client must
// publish and subscribe on the matching variant.
type Format int

const (
	FormatJSON Format = iota
	FormatCBOR
)

func (f Format) String() string {
	if f == FormatCBOR {
		return "cbor"
	}
	return "json"
}

func (f Format) marshal(v any) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if f == FormatCBOR {
		data, err = cbor.Marshal(v)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, errors.New(CodeSerialization, "failed to encode provisioning payload", err)
	}
	return data, nil
}

func (f Format) unmarshal(data []byte, v any) error {
	var err error
	if f == FormatCBOR {
		err = cbor.Unmarshal(data, v)
	} else {
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return errors.New(CodeSerialization, "failed to decode provisioning payload", err)
	}
	return nil
}

func (f Format) topicCreate() string {
	return "$aws/certificates/create/" + f.String()
}

func (f Format) topicCreateFromCSR() string {
	return "$aws/certificates/create-from-csr/" + f.String()
}

func (f Format) topicRegisterThing(template string) string {
	return fmt.Sprintf("$aws/provisioning-templates/%s/provision/%s", template, f.String())
}
