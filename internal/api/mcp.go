package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dustybot/dusty/internal/dates"
	"github.com/dustybot/dusty/internal/interpret"
	"github.com/dustybot/dusty/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store       *storage.Store
	Interpreter *interpret.Interpreter
	Executor    Executor
}

// NewMCPServer creates an MCP server exposing Dusty's interpreter and chore
// board as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"dusty",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("dusty: household chore board driven by plain-language commands."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("interpret_message",
			mcp.WithDescription("Parse a plain-language chore message into structured commands without executing them."),
			mcp.WithString("message", mcp.Description("The message text, e.g. 'add dishes for becky tomorrow'"), mcp.Required()),
			mcp.WithString("sender", mcp.Description("Name of the household member sending the message"), mcp.Required()),
		),
		mcpInterpretMessage(deps),
	)

	s.AddTool(
		mcp.NewTool("send_message",
			mcp.WithDescription("Send a message to Dusty as a household member and get the replies Dusty would text back."),
			mcp.WithString("message", mcp.Description("The message text"), mcp.Required()),
			mcp.WithString("sender", mcp.Description("Name of the household member sending the message"), mcp.Required()),
		),
		mcpSendMessage(deps),
	)

	s.AddTool(
		mcp.NewTool("add_chore",
			mcp.WithDescription("Create a chore directly on the board."),
			mcp.WithString("name", mcp.Description("Chore name"), mcp.Required()),
			mcp.WithString("assignee", mcp.Description("Name of the member responsible (optional)")),
			mcp.WithString("due", mcp.Description("Due date phrase, e.g. 'tomorrow' or 'next friday' (optional)")),
			mcp.WithString("recurrence", mcp.Description("Recurrence phrase, e.g. 'every saturday' (optional)")),
		),
		mcpAddChore(deps),
	)

	s.AddTool(
		mcp.NewTool("list_chores",
			mcp.WithDescription("List open chores, optionally filtered to one member."),
			mcp.WithString("assignee", mcp.Description("Member name to filter by (optional)")),
		),
		mcpListChores(deps),
	)

	s.AddTool(
		mcp.NewTool("complete_chore",
			mcp.WithDescription("Mark a chore done by name."),
			mcp.WithString("name", mcp.Description("Chore name"), mcp.Required()),
			mcp.WithString("completed_by", mcp.Description("Name of the member who finished it"), mcp.Required()),
		),
		mcpCompleteChore(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"dusty://board",
			"Chore Board",
			mcp.WithResourceDescription("All open chores as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceBoard(deps),
	)

	return s
}

func mcpInterpretMessage(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		sender, err := req.RequireString("sender")
		if err != nil {
			return mcpError("sender is required"), nil
		}

		commands := deps.Interpreter.Interpret(message, sender)

		b, err := json.Marshal(commands)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal commands: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSendMessage(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		sender, err := req.RequireString("sender")
		if err != nil {
			return mcpError("sender is required"), nil
		}

		user, err := deps.Store.GetUserByName(sender)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("unknown member %q", sender)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to look up sender: %v", err)), nil
		}

		commands := deps.Interpreter.Interpret(message, user.Name)

		var replies []string
		for _, cmd := range commands {
			reply, err := deps.Executor.Execute(ctx, user, cmd)
			if err != nil {
				return mcpError(fmt.Sprintf("failed to execute command: %v", err)), nil
			}
			if reply != "" {
				replies = append(replies, reply)
			}
		}

		b, err := json.Marshal(replies)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal replies: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAddChore(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}

		chore := storage.Chore{
			ID:        uuid.New().String(),
			Name:      name,
			CreatedAt: time.Now().UTC(),
		}

		if assignee := req.GetString("assignee", ""); assignee != "" {
			user, err := deps.Store.GetUserByName(assignee)
			if errors.Is(err, storage.ErrNotFound) {
				return mcpError(fmt.Sprintf("unknown member %q", assignee)), nil
			}
			if err != nil {
				return mcpError(fmt.Sprintf("failed to look up assignee: %v", err)), nil
			}
			chore.AssigneeID = user.ID
		}

		if due := req.GetString("due", ""); due != "" {
			parsed, ok := dates.Normalize(due, time.Now())
			if !ok {
				return mcpError(fmt.Sprintf("could not understand due date %q", due)), nil
			}
			chore.DueDate = parsed
		}

		if recur := req.GetString("recurrence", ""); recur != "" {
			canonical, ok := dates.NormalizeRecurrence(recur)
			if !ok {
				return mcpError(fmt.Sprintf("could not understand recurrence %q", recur)), nil
			}
			chore.Recurrence = canonical
		}

		created, err := deps.Store.CreateChore(chore)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to create chore: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Created chore %s (%s)", created.Name, created.ID)), nil
	}
}

func mcpListChores(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		assigneeID := ""
		if assignee := req.GetString("assignee", ""); assignee != "" {
			user, err := deps.Store.GetUserByName(assignee)
			if errors.Is(err, storage.ErrNotFound) {
				return mcpError(fmt.Sprintf("unknown member %q", assignee)), nil
			}
			if err != nil {
				return mcpError(fmt.Sprintf("failed to look up member: %v", err)), nil
			}
			assigneeID = user.ID
		}

		chores, err := deps.Store.ListOpenChores(assigneeID)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list chores: %v", err)), nil
		}
		if len(chores) == 0 {
			return mcpText("[]"), nil
		}

		b, err := json.Marshal(chores)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal chores: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpCompleteChore(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return mcpError("name is required"), nil
		}
		completedBy, err := req.RequireString("completed_by")
		if err != nil {
			return mcpError("completed_by is required"), nil
		}

		user, err := deps.Store.GetUserByName(completedBy)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("unknown member %q", completedBy)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to look up member: %v", err)), nil
		}

		chore, err := deps.Store.FindOpenChore(name, user.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("no open chore matching %q", name)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to find chore: %v", err)), nil
		}

		if err := deps.Store.CompleteChore(chore.ID, user.ID, time.Now().UTC()); err != nil {
			return mcpError(fmt.Sprintf("failed to complete chore: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Completed %q", chore.Name)), nil
	}
}

func mcpResourceBoard(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		chores, err := deps.Store.ListOpenChores("")
		if err != nil {
			return nil, fmt.Errorf("failed to list chores: %w", err)
		}

		b, err := json.Marshal(chores)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal chores: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
