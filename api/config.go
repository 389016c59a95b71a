package api

// endpoint paths, relative to the configured base URLs
const (
	ChainInfoPath    = "/api/v1/public/chain/info"
	BalancePathTmpl  = "/v1/account/%s/balance"
	DomainVerifyPath = "/v1/domain"
)

// response code the network-info service uses for success
const chainInfoOK = 200
