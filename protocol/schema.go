package protocol

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var inboundSchemaJSON string

var inboundSchema = jsonschema.MustCompileString("inbound.schema.json", inboundSchemaJSON)

// Validate checks a raw inbound document against the command schema.
func Validate(data []byte) error {
	doc, err := decodeAny(data)
	if err != nil {
		return NewError(CodeMalformed, "invalid json: %v", err)
	}
	if err := inboundSchema.Validate(doc); err != nil {
		return NewError(CodeSchema, "%v", err)
	}
	return nil
}

// Decode validates an inbound document and returns the typed command, one of
// *Login, *MakeTurn, *CreateGame, *Spectate, *KeyframeRequest or
// *ListMapsRequest. Errors are *Error values ready to send back.
func Decode(data []byte) (any, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var head struct {
		Command string `json:"command"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, NewError(CodeMalformed, "invalid json: %v", err)
	}

	var cmd any
	switch head.Command {
	case CmdLogin:
		cmd = &Login{}
	case CmdMakeTurn:
		cmd = &MakeTurn{}
	case CmdCreateGame:
		cmd = &CreateGame{}
	case CmdSpectate:
		cmd = &Spectate{}
	case CmdKeyframeRequest:
		cmd = &KeyframeRequest{}
	case CmdListMapsRequest:
		cmd = &ListMapsRequest{}
	default:
		return nil, NewError(CodeSchema, "unknown command %q", head.Command)
	}

	if err := json.Unmarshal(data, cmd); err != nil {
		return nil, NewError(CodeMalformed, "decode %s: %v", head.Command, err)
	}
	return cmd, nil
}

// Encode serialises an outbound command.
func Encode(cmd any) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}
	return data, nil
}

func decodeAny(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
