package gateway

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/inbound.schema.json
var inboundSchema []byte

const inboundSchemaURL = "https://simpletrade.local/schemas/inbound.schema.json"

// Validator checks raw client frames against the inbound schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded inbound schema.
func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(inboundSchemaURL, bytes.NewReader(inboundSchema)); err != nil {
		return nil, fmt.Errorf("adding inbound schema: %w", err)
	}
	s, err := c.Compile(inboundSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling inbound schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

// Decode validates a frame and decodes it.
func (v *Validator) Decode(msg []byte) (Inbound, error) {
	var raw any
	if err := json.Unmarshal(msg, &raw); err != nil {
		return Inbound{}, fmt.Errorf("malformed frame: %w", err)
	}
	if err := v.schema.Validate(raw); err != nil {
		return Inbound{}, fmt.Errorf("invalid frame: %w", err)
	}

	var in Inbound
	if err := json.Unmarshal(msg, &in); err != nil {
		return Inbound{}, fmt.Errorf("decoding frame: %w", err)
	}
	return in, nil
}
