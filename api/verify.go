package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// GetDomainVerification asks the verify service whether domain is a
// registered, non-malicious sign-in origin
func (c *Client) GetDomainVerification(ctx context.Context, domain string) (DomainVerification, error) {
	if c.verifyURL == "" {
		return DomainVerification{}, fmt.Errorf("verify url is not configured")
	}
	if domain == "" {
		return DomainVerification{}, fmt.Errorf("domain is required")
	}

	endpoint := strings.TrimRight(c.verifyURL, "/") + DomainVerifyPath
	query := url.Values{"domain": []string{domain}}
	if c.projectID != "" {
		query.Set("projectId", c.projectID)
	}

	var resp DomainVerification
	if err := c.getJSON(ctx, endpoint, query, &resp); err != nil {
		return DomainVerification{}, fmt.Errorf("failed to verify domain: %w", err)
	}
	if resp.Domain == "" {
		resp.Domain = domain
	}
	return resp, nil
}
