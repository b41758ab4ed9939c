package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/winref/internal/api"
	"github.com/sha1n/winref/internal/lookup"
)

// ValueArgument carries a hash or a full path.
type ValueArgument struct {
	Value string `json:"value" jsonschema:"Hash (32 hex chars for MD5, 64 for SHA256) or full Windows path"`
}

// NameArgument carries a file name and an optional directory.
type NameArgument struct {
	Value string `json:"value" jsonschema:"File name, for example kernel32.dll"`
	Path  string `json:"path,omitempty" jsonschema:"Optional directory, for example C:\\Windows\\System32"`
}

func (a NameArgument) lookup() lookup.NameLookup {
	l := lookup.NameLookup{Value: a.Value}
	if a.Path != "" {
		path := a.Path
		l.Path = &path
	}
	return l
}

// LookupHandler serves the lookup tools.
type LookupHandler struct {
	lookup api.Lookup
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(l api.Lookup) *LookupHandler {
	return &LookupHandler{lookup: l}
}

// HandleHash looks up an MD5 or SHA256 hash.
func (h *LookupHandler) HandleHash(ctx context.Context, req *mcp.CallToolRequest, args ValueArgument) (*mcp.CallToolResult, any, error) {
	res, err := h.lookup.LookupHash(ctx, args.Value)
	return result(res, err), nil, nil
}

// HandleName looks up a file name.
func (h *LookupHandler) HandleName(ctx context.Context, req *mcp.CallToolRequest, args NameArgument) (*mcp.CallToolResult, any, error) {
	res, err := h.lookup.LookupName(ctx, args.lookup())
	return result(res, err), nil, nil
}

// HandleFullName looks up a full file path.
func (h *LookupHandler) HandleFullName(ctx context.Context, req *mcp.CallToolRequest, args ValueArgument) (*mcp.CallToolResult, any, error) {
	res, err := h.lookup.LookupFullName(ctx, args.Value)
	return result(res, err), nil, nil
}

// HandleKnownName reports whether a file name is known.
func (h *LookupHandler) HandleKnownName(ctx context.Context, req *mcp.CallToolRequest, args NameArgument) (*mcp.CallToolResult, any, error) {
	res, err := h.lookup.KnownName(ctx, args.lookup())
	return result(res, err), nil, nil
}

// HandleKnownFullName reports whether a full file path is known.
func (h *LookupHandler) HandleKnownFullName(ctx context.Context, req *mcp.CallToolRequest, args ValueArgument) (*mcp.CallToolResult, any, error) {
	res, err := h.lookup.KnownFullName(ctx, args.Value)
	return result(res, err), nil, nil
}

// RegisterLookupTools registers the lookup tools with an MCP server.
func RegisterLookupTools(server *mcp.Server, l api.Lookup) {
	h := NewLookupHandler(l)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "lookup_hash",
		Description: "Aggregate every reference Windows file with the given MD5 or SHA256 hash",
	}, h.HandleHash)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "lookup_name",
		Description: "Aggregate every reference Windows file with the given name and report whether the name and directory are known",
	}, h.HandleName)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "lookup_fullname",
		Description: "Aggregate every reference Windows file matching the name of a full path and report whether its directory is known",
	}, h.HandleFullName)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "known_name",
		Description: "Report whether a file name, optionally within a directory, exists in a clean Windows install",
	}, h.HandleKnownName)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "known_fullname",
		Description: "Report whether a full file path exists in a clean Windows install",
	}, h.HandleKnownFullName)
}

func result(v any, err error) *mcp.CallToolResult {
	if err != nil {
		return errorResult(fmt.Sprintf("Lookup failed: %s", err))
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to encode result: %s", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
