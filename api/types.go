package api

import (
	"fmt"

	"github.com/chinmay1088/chainkit/balance"
	"github.com/chinmay1088/chainkit/network"
)

// ChainInfoResponse is the network-info envelope
type ChainInfoResponse struct {
	Code int                   `json:"code"`
	Data []network.ChainRecord `json:"data"`
}

// BalanceResponse is the balance service envelope. Older deployments
// return the list under "balances".
type BalanceResponse struct {
	Data     []balance.Balance `json:"data"`
	Balances []balance.Balance `json:"balances"`
}

// Entries returns whichever list the service populated
func (r BalanceResponse) Entries() []balance.Balance {
	if r.Data != nil {
		return r.Data
	}
	return r.Balances
}

// DomainVerification is the verify service's verdict on a sign-in domain
type DomainVerification struct {
	Domain   string `json:"domain"`
	Verified bool   `json:"isVerified"`
	Scam     bool   `json:"isScam"`
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether retrying may help
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
