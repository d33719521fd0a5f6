package tools

import (
	"context"

	"github.com/cockroachdb/errors"
	mcp "github.com/metoro-io/mcp-golang"
	"go.uber.org/zap"

	"github.com/cnosuke/judolhunter/runner"
)

// ScanURLArgs - Arguments for scan_url tool
type ScanURLArgs struct {
	URL string `json:"url" jsonschema:"description=URL to scan for gambling cloaking; https:// is assumed when no scheme is given,required=true"`
}

// ScanURL runs one scan and returns the ScanResult as JSON. Unreachable
// pages are not tool errors; they come back as a result with status "error".
func ScanURL(ctx context.Context, s URLScanner, args ScanURLArgs) (*mcp.ToolResponse, error) {
	zap.S().Infow("executing scan_url", "url", args.URL)

	if args.URL == "" {
		return nil, errors.New("URL is required")
	}
	target, err := runner.NormalizeURL(args.URL)
	if err != nil {
		return nil, err
	}

	return jsonResponse(s.Scan(ctx, target))
}

// RegisterScanURLTool - Register the scan_url tool
func RegisterScanURLTool(mcpServer *mcp.Server, s URLScanner) error {
	zap.S().Debugw("registering scan_url tool")
	err := mcpServer.RegisterTool("scan_url",
		"Checks a URL for gambling cloaking: fetches it as Googlebot and as a browser, compares both responses and reports injected keywords, links, hidden elements and meta tags with a status and risk level",
		func(args ScanURLArgs) (*mcp.ToolResponse, error) {
			return ScanURL(context.Background(), s, args)
		})

	if err != nil {
		zap.S().Errorw("failed to register scan_url tool", "error", err)
		return errors.Wrap(err, "failed to register scan_url tool")
	}

	return nil
}
