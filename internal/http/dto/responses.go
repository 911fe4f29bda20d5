package dto

type AuthChallengeResponse struct {
	Challenge string `json:"challenge"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	Address string `json:"address"`
}

type ErrorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type OperationResponse struct {
	OK            bool   `json:"ok"`
	TransactionID string `json:"transaction_id,omitempty"`
	Data          any    `json:"data,omitempty"`
}
