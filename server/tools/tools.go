package tools

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	mcp "github.com/metoro-io/mcp-golang"
	"go.uber.org/zap"

	"github.com/cnosuke/judolhunter/scanner"
	"github.com/cnosuke/judolhunter/types"
)

// URLScanner defines the interface for scanning a single URL
type URLScanner interface {
	Scan(ctx context.Context, url string, listeners ...scanner.Listener) *types.ScanResult
}

// SubpageDiscoverer defines the interface for subpage discovery
type SubpageDiscoverer interface {
	Discover(ctx context.Context, baseURL string) (*types.DiscoveryResult, error)
}

// RegisterAllTools - Register all tools with the server
func RegisterAllTools(mcpServer *mcp.Server, s URLScanner, d SubpageDiscoverer, maxSubpages int) error {
	// Register scan_url tool
	if err := RegisterScanURLTool(mcpServer, s); err != nil {
		return err
	}

	// Register discover_subpages tool
	if err := RegisterDiscoverSubpagesTool(mcpServer, d, maxSubpages); err != nil {
		return err
	}

	return nil
}

func jsonResponse(v any) (*mcp.ToolResponse, error) {
	data, err := json.Marshal(v)
	if err != nil {
		zap.S().Errorw("failed to marshal response to JSON",
			"error", err)
		return nil, errors.Wrap(err, "failed to marshal response to JSON")
	}
	return mcp.NewToolResponse(mcp.NewTextContent(string(data))), nil
}
