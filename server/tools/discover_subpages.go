package tools

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	mcp "github.com/metoro-io/mcp-golang"
	"go.uber.org/zap"

	"github.com/cnosuke/judolhunter/runner"
)

// DiscoverSubpagesArgs - Arguments for discover_subpages tool
type DiscoverSubpagesArgs struct {
	URL   string `json:"url" jsonschema:"description=Base URL whose internal pages are listed,required=true"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum number of candidate URLs to return"`
}

// DiscoverSubpagesResponse - Response of discover_subpages tool
type DiscoverSubpagesResponse struct {
	URL        string   `json:"url"`
	Injected   []string `json:"injected"`
	Shared     []string `json:"shared"`
	Candidates []string `json:"candidates"`
}

// DiscoverSubpages lists candidate subpages, pages linked only for the crawler first.
func DiscoverSubpages(ctx context.Context, d SubpageDiscoverer, maxSubpages int, args DiscoverSubpagesArgs) (*mcp.ToolResponse, error) {
	zap.S().Infow("executing discover_subpages",
		"url", args.URL,
		"limit", args.Limit)

	if args.URL == "" {
		return nil, errors.New("URL is required")
	}
	base, err := runner.NormalizeURL(args.URL)
	if err != nil {
		return nil, err
	}

	limit := maxSubpages
	if args.Limit > 0 && (limit <= 0 || args.Limit < limit) {
		limit = args.Limit
	}

	res, err := d.Discover(ctx, base)
	if err != nil {
		zap.S().Errorw("failed to discover subpages",
			"url", base,
			"error", err)
		return nil, errors.Wrap(err, "failed to discover subpages")
	}

	resp := &DiscoverSubpagesResponse{
		URL:        base,
		Injected:   []string{},
		Shared:     []string{},
		Candidates: []string{},
	}
	for _, c := range res.Candidates {
		if limit > 0 && len(resp.Candidates) == limit {
			break
		}
		resp.Candidates = append(resp.Candidates, c.URL)
		if c.InjectedOnly {
			resp.Injected = append(resp.Injected, c.URL)
		} else {
			resp.Shared = append(resp.Shared, c.URL)
		}
	}

	return jsonResponse(resp)
}

// RegisterDiscoverSubpagesTool - Register the discover_subpages tool
func RegisterDiscoverSubpagesTool(mcpServer *mcp.Server, d SubpageDiscoverer, maxSubpages int) error {
	zap.S().Debugw("registering discover_subpages tool", "max_subpages", maxSubpages)
	err := mcpServer.RegisterTool("discover_subpages",
		fmt.Sprintf("Lists internal pages of a site worth scanning, pages linked only for Googlebot first (max %d)", maxSubpages),
		func(args DiscoverSubpagesArgs) (*mcp.ToolResponse, error) {
			return DiscoverSubpages(context.Background(), d, maxSubpages, args)
		})

	if err != nil {
		zap.S().Errorw("failed to register discover_subpages tool", "error", err)
		return errors.Wrap(err, "failed to register discover_subpages tool")
	}

	return nil
}
