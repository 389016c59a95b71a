package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/chinmay1088/chainkit/network"
)

// GetChainInfo fetches EVM chain descriptors from the wallet server
func (c *Client) GetChainInfo(ctx context.Context) ([]network.ChainRecord, error) {
	if c.walletServerURL == "" {
		return nil, fmt.Errorf("wallet server url is not configured")
	}

	endpoint := strings.TrimRight(c.walletServerURL, "/") + ChainInfoPath
	query := url.Values{"from": []string{c.clientTag}}

	var resp ChainInfoResponse
	if err := c.getJSON(ctx, endpoint, query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch chain info: %w", err)
	}

	if resp.Code != chainInfoOK {
		return nil, fmt.Errorf("chain info returned code %d", resp.Code)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("chain info response has no data")
	}

	return resp.Data, nil
}
