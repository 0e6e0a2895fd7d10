package dto

type AuthResponse struct {
	Token         string `json:"token"`
	WalletAddress string `json:"wallet_address"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type GhostCheckResponse struct {
	Renewed bool `json:"renewed"`
	Vault   any  `json:"vault"`
}
