package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

/*
RegisterMCP exposes every tool of the registry on an MCP server.
*/
func (registry *Registry) RegisterMCP(srv *server.MCPServer) {
	for _, declaration := range registry.Declarations() {
		name := declaration.Name

		srv.AddTool(declaration, func(
			ctx context.Context, req mcp.CallToolRequest,
		) (*mcp.CallToolResult, error) {
			result, err := registry.Execute(ctx, name, req.GetArguments())

			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			return mcp.NewToolResultText(result), nil
		})
	}
}

/*
RemoteServer is a connection to an MCP server whose tools are added to a
registry. Calls are forwarded over the open session.
*/
type RemoteServer struct {
	url  string
	conn *client.Client
}

/*
ConnectRemote opens a streamable HTTP session to the MCP endpoint at url
and registers every tool it lists.
*/
func ConnectRemote(
	ctx context.Context, url string, registry *Registry,
) (*RemoteServer, error) {
	conn, err := client.NewStreamableHttpClient(url)

	if err != nil {
		log.Error("failed to create MCP client", "error", err, "url", url)
		return nil, fmt.Errorf("failed to create MCP client for %s: %w", url, err)
	}

	if err := conn.Start(ctx); err != nil {
		log.Error("failed to start MCP transport", "error", err, "url", url)
		return nil, fmt.Errorf("failed to start MCP transport for %s: %w", url, err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "dice-agent",
		Version: "1.0.0",
	}

	serverInfo, err := conn.Initialize(ctx, initRequest)

	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize MCP session with %s: %w", url, err)
	}

	listed, err := conn.ListTools(ctx, mcp.ListToolsRequest{})

	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to list tools of %s: %w", url, err)
	}

	remote := &RemoteServer{url: url, conn: conn}

	for _, declaration := range listed.Tools {
		registry.Register(Tool{
			Declaration: declaration,
			Handler:     remote.handler(declaration.Name),
		})
	}

	log.Info(
		"connected to MCP server",
		"url", url,
		"server", serverInfo.ServerInfo.Name,
		"tools", len(listed.Tools),
	)

	return remote, nil
}

func (remote *RemoteServer) handler(name string) Handler {
	return func(ctx context.Context, args map[string]any) (string, error) {
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args

		res, err := remote.conn.CallTool(ctx, req)

		if err != nil {
			return "", err
		}

		return resultText(res)
	}
}

func (remote *RemoteServer) Close() error {
	return remote.conn.Close()
}

func resultText(res *mcp.CallToolResult) (string, error) {
	if res == nil || len(res.Content) == 0 {
		return "", nil
	}

	text := ""

	for _, content := range res.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			text += tc.Text
			continue
		}

		buf, err := json.Marshal(content)

		if err != nil {
			return "", err
		}

		text += string(buf)
	}

	if res.IsError {
		return "", fmt.Errorf("%s", text)
	}

	return text, nil
}
