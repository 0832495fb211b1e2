package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	fiberClient "github.com/gofiber/fiber/v3/client"
	"github.com/theapemachine/dice-agent/pkg/errors"
)

/*
RPCClient posts JSON-RPC requests to a single endpoint.
*/
type RPCClient struct {
	path   string
	conn   *fiberClient.Client
	nextID atomic.Int64
}

func NewRPCClient(baseURL, path string) *RPCClient {
	if path == "" {
		path = "/"
	}

	return &RPCClient{
		path: path,
		conn: fiberClient.New().SetBaseURL(baseURL),
	}
}

/*
Call sends method with params and decodes the result into result. Error
replies come back as *errors.RpcError, whether the server sent them bare
or inside an envelope.
*/
func (client *RPCClient) Call(
	ctx context.Context, method string, params any, result any,
) error {
	req, err := NewRequest(client.nextID.Add(1), method, params)

	if err != nil {
		return fmt.Errorf("jsonrpc %s: encode request: %w", method, err)
	}

	res, err := client.conn.Post(client.path, fiberClient.Config{
		Ctx: ctx,
		Header: map[string]string{
			"Content-Type": "application/json",
		},
		Body: req,
	})

	if err != nil {
		log.Error("rpc call failed", "method", method, "error", err)
		return fmt.Errorf("jsonrpc %s: %w", method, err)
	}

	defer res.Close()

	return decodeReply(res.StatusCode(), res.Body(), result)
}

type reply struct {
	Result json.RawMessage  `json:"result"`
	Error  *errors.RpcError `json:"error"`

	// Bare error objects.
	Code    *int   `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func decodeReply(status int, body []byte, result any) error {
	var out reply

	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("jsonrpc: undecodable reply with status %d: %w", status, err)
	}

	switch {
	case out.Error != nil:
		return out.Error
	case out.Code != nil:
		return &errors.RpcError{Code: *out.Code, Message: out.Message, Data: out.Data}
	case status >= 400:
		return fmt.Errorf("jsonrpc: unexpected status %d", status)
	}

	if result == nil || len(out.Result) == 0 {
		return nil
	}

	return json.Unmarshal(out.Result, result)
}
