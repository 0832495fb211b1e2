package service

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/cohesivestack/valgo"
	"github.com/theapemachine/dice-agent/pkg/a2a"
	"github.com/theapemachine/dice-agent/pkg/errors"
	"github.com/theapemachine/dice-agent/pkg/jsonrpc"
)

const (
	MethodSendTask = "tasks/send"
	MethodGetTask  = "tasks/get"
)

/*
TaskManager is what the dispatcher routes task methods to.
*/
type TaskManager interface {
	SendTask(ctx context.Context, params a2a.TaskSendParams) (a2a.SendTaskResult, error)
	Get(ctx context.Context, id string) (a2a.Task, error)
}

/*
Reply is a dispatch outcome: the transport status and the JSON body,
either a success envelope or a bare error object.
*/
type Reply struct {
	Status int
	Body   any
}

type Dispatcher struct {
	manager TaskManager
}

func NewDispatcher(manager TaskManager) (*Dispatcher, error) {
	if manager == nil {
		return nil, errors.NewError(errors.ErrMissingTaskManager{})
	}

	return &Dispatcher{manager: manager}, nil
}

/*
Dispatch validates the envelope in body and routes it by method. Nothing
is read from or written to the task store before the envelope and the
method's params have been validated.
*/
func (dispatcher *Dispatcher) Dispatch(ctx context.Context, body []byte) Reply {
	req, rpcErr := jsonrpc.Validate(body)

	if rpcErr != nil {
		return errorReply(rpcErr)
	}

	log.Debug("dispatching", "method", req.Method, "id", string(req.ID))

	switch req.Method {
	case MethodSendTask:
		return dispatcher.sendTask(ctx, req)
	case MethodGetTask:
		return dispatcher.getTask(ctx, req)
	}

	log.Warn("unknown method", "method", req.Method)

	return errorReply(errors.ErrMethodNotFound)
}

func (dispatcher *Dispatcher) sendTask(ctx context.Context, req jsonrpc.RPCRequest) Reply {
	var params a2a.TaskSendParams

	if err := req.DecodeParams(&params); err != nil {
		log.Warn("undecodable params", "method", req.Method, "error", err)
		return errorReply(errors.ErrInvalidParams)
	}

	val := valgo.Is(
		valgo.String(params.ID, "id").Not().Blank(),
	).Is(
		valgo.Bool(params.Message != nil, "message").True("{{title}} is required"),
	)

	if params.Message != nil {
		val.Is(valgo.String(params.Message.Role, "message.role").InSlice(
			[]string{a2a.RoleUser, a2a.RoleAgent},
		))
	}

	if !val.Valid() {
		return invalidParams(req.Method, val)
	}

	result, err := dispatcher.manager.SendTask(ctx, params)

	if err != nil {
		return failure(req.Method, err)
	}

	return Reply{Status: http.StatusOK, Body: jsonrpc.NewResponse(req.ID, result)}
}

func (dispatcher *Dispatcher) getTask(ctx context.Context, req jsonrpc.RPCRequest) Reply {
	var params a2a.TaskQueryParams

	if err := req.DecodeParams(&params); err != nil {
		log.Warn("undecodable params", "method", req.Method, "error", err)
		return errorReply(errors.ErrInvalidParams)
	}

	if val := valgo.Is(valgo.String(params.ID, "id").Not().Blank()); !val.Valid() {
		return invalidParams(req.Method, val)
	}

	task, err := dispatcher.manager.Get(ctx, params.ID)

	if err != nil {
		return failure(req.Method, err)
	}

	return Reply{
		Status: http.StatusOK,
		Body:   jsonrpc.NewResponse(req.ID, a2a.NewGetTaskResult(task)),
	}
}

func invalidParams(method string, val *valgo.Validation) Reply {
	fields := make(map[string][]string)

	for name, valueErr := range val.Errors() {
		fields[name] = valueErr.Messages()
	}

	log.Warn("invalid params", "method", method, "fields", fields)

	return errorReply(errors.ErrInvalidParams.WithData(fields))
}

func failure(method string, err error) Reply {
	var rpcErr *errors.RpcError

	if !stderrors.As(err, &rpcErr) {
		log.Error("task manager failed", "method", method, "error", err)
		rpcErr = errors.ErrInternal
	}

	return errorReply(rpcErr)
}

func errorReply(rpcErr *errors.RpcError) Reply {
	return Reply{Status: rpcErr.HTTPStatus(), Body: rpcErr}
}
