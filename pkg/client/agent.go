package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	fiberClient "github.com/gofiber/fiber/v3/client"
	"github.com/google/uuid"
	"github.com/theapemachine/dice-agent/pkg/a2a"
	"github.com/theapemachine/dice-agent/pkg/jsonrpc"
)

const cardPath = "/.well-known/agent.json"

/*
AgentClient talks to a remote agent: it discovers the agent card and
sends and reads tasks over JSON-RPC.
*/
type AgentClient struct {
	conn *fiberClient.Client
	rpc  *jsonrpc.RPCClient
}

func NewAgentClient(baseURL string) *AgentClient {
	return &AgentClient{
		conn: fiberClient.New().SetBaseURL(baseURL),
		rpc:  jsonrpc.NewRPCClient(baseURL, "/"),
	}
}

func (client *AgentClient) Card(ctx context.Context) (*a2a.AgentCard, error) {
	res, err := client.conn.Get(cardPath, fiberClient.Config{Ctx: ctx})

	if err != nil {
		return nil, fmt.Errorf("fetch agent card: %w", err)
	}

	defer res.Close()

	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch agent card: unexpected status %d", res.StatusCode())
	}

	card := &a2a.AgentCard{}

	if err := res.JSON(card); err != nil {
		return nil, fmt.Errorf("decode agent card: %w", err)
	}

	return card, nil
}

func (client *AgentClient) SendTask(
	ctx context.Context, params a2a.TaskSendParams,
) (a2a.SendTaskResult, error) {
	var result a2a.SendTaskResult

	log.Debug("sending task", "task_id", params.ID)

	err := client.rpc.Call(ctx, "tasks/send", params, &result)

	return result, err
}

func (client *AgentClient) GetTask(ctx context.Context, id string) (a2a.GetTaskResult, error) {
	var result a2a.GetTaskResult

	err := client.rpc.Call(ctx, "tasks/get", a2a.TaskQueryParams{ID: id}, &result)

	return result, err
}

/*
Ask sends prompt as a new task and returns the text of its artifact.
A task that failed is reported as an error carrying the agent's
explanation.
*/
func (client *AgentClient) Ask(ctx context.Context, prompt string) (string, error) {
	result, err := client.SendTask(ctx, a2a.TaskSendParams{
		ID:      uuid.NewString(),
		Message: a2a.NewTextMessage(a2a.RoleUser, prompt),
	})

	if err != nil {
		return "", err
	}

	if result.Status != a2a.TaskStateCompleted {
		return "", client.failure(ctx, result)
	}

	if len(result.Artifacts) == 0 {
		return "", fmt.Errorf("task %s completed without an artifact", result.ID)
	}

	return result.Artifacts[0].Text(), nil
}

func (client *AgentClient) failure(ctx context.Context, result a2a.SendTaskResult) error {
	task, err := client.GetTask(ctx, result.ID)

	if err != nil || task.Status.Message == nil {
		return fmt.Errorf("task %s ended %s", result.ID, result.Status)
	}

	return fmt.Errorf("task %s ended %s: %s", result.ID, result.Status, task.Status.Message.String())
}
