package jsonrpc

import (
	"encoding/json"

	"github.com/theapemachine/dice-agent/pkg/errors"
)

/*
RPCResponse is the success envelope. The agent answers errors with the
bare error object, but Error is kept so clients also understand servers
that wrap their errors.
*/
type RPCResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      json.RawMessage  `json:"id"`
	Result  any              `json:"result,omitempty"`
	Error   *errors.RpcError `json:"error,omitempty"`
}

func NewResponse(id json.RawMessage, result any) RPCResponse {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}

	return RPCResponse{
		JSONRPC: Version,
		ID:      id,
		Result:  result,
	}
}
