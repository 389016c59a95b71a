package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/chinmay1088/chainkit/balance"
	"github.com/chinmay1088/chainkit/network"
)

// GetBalance fetches token balances of an address on one network
func (c *Client) GetBalance(ctx context.Context, address string, caip network.CaipNetworkID, forceUpdate bool) ([]balance.Balance, error) {
	if c.balanceURL == "" {
		return nil, fmt.Errorf("balance url is not configured")
	}
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}

	endpoint := strings.TrimRight(c.balanceURL, "/") + fmt.Sprintf(BalancePathTmpl, url.PathEscape(address))
	query := url.Values{
		"currency": []string{"usd"},
		"chainId":  []string{caip.String()},
		"sv":       []string{c.clientTag},
	}
	if c.projectID != "" {
		query.Set("projectId", c.projectID)
	}
	if forceUpdate {
		query.Set("forceUpdate", caip.String())
	}

	var resp BalanceResponse
	if err := c.getJSON(ctx, endpoint, query, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch balance: %w", err)
	}

	return resp.Entries(), nil
}
