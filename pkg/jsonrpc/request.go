package jsonrpc

import (
	"bytes"
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/dice-agent/pkg/errors"
)

const Version = "2.0"

type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"` // string | number | null
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

/*
NewRequest builds a request envelope, encoding id and params.
*/
func NewRequest(id any, method string, params any) (RPCRequest, error) {
	req := RPCRequest{JSONRPC: Version, Method: method}

	rawID, err := json.Marshal(id)

	if err != nil {
		return req, err
	}

	req.ID = rawID

	if params != nil {
		if req.Params, err = json.Marshal(params); err != nil {
			return req, err
		}
	}

	return req, nil
}

/*
Validate decodes body into a request envelope. The body must be a JSON
object with jsonrpc "2.0", a string method, an id that is null, a
string or a number, and params that are absent, an object or an array.
Bodies that are not JSON at all fail with a parse error, everything
else with an invalid request error.
*/
func Validate(body []byte) (RPCRequest, *errors.RpcError) {
	var fields map[string]json.RawMessage

	if !json.Valid(body) {
		log.Warn("request body is not JSON", "size", len(body))
		return RPCRequest{}, errors.ErrParseError
	}

	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return RPCRequest{}, invalid("request must be a JSON object")
	}

	req := RPCRequest{
		ID:     fields["id"],
		Params: fields["params"],
	}

	if err := json.Unmarshal(fields["jsonrpc"], &req.JSONRPC); err != nil || req.JSONRPC != Version {
		return RPCRequest{}, invalid("jsonrpc must be \"2.0\"")
	}

	if kind(fields["method"]) != '"' {
		return RPCRequest{}, invalid("method must be a string")
	}

	if err := json.Unmarshal(fields["method"], &req.Method); err != nil {
		return RPCRequest{}, invalid("method must be a string")
	}

	switch kind(req.ID) {
	case 'n', '"', '0':
	default:
		return RPCRequest{}, invalid("id must be null, a string or a number")
	}

	switch kind(req.Params) {
	case 0, 'n', '{', '[':
	default:
		return RPCRequest{}, invalid("params must be an object or an array")
	}

	return req, nil
}

/*
HasParams reports whether params were sent as a non-null value.
*/
func (req RPCRequest) HasParams() bool {
	k := kind(req.Params)
	return k == '{' || k == '['
}

// DecodeParams unmarshals params into v.
func (req RPCRequest) DecodeParams(v any) error {
	if !req.HasParams() {
		return errors.ErrInvalidParams
	}

	return json.Unmarshal(req.Params, v)
}

func invalid(reason string) *errors.RpcError {
	log.Warn("invalid request envelope", "reason", reason)
	return errors.ErrInvalidRequest
}

/*
kind classifies a raw JSON value by its first byte: 0 when absent, 'n'
for null, '"' for strings, '0' for numbers, and the opening bracket for
objects and arrays. Booleans return 't' or 'f'.
*/
func kind(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)

	if len(raw) == 0 {
		return 0
	}

	switch c := raw[0]; {
	case c == '-' || (c >= '0' && c <= '9'):
		return '0'
	default:
		return c
	}
}
