package contracts

// Response is the common envelope for every HTTP reply
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// CreateCallResponse is returned after a call is originated
type CreateCallResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	CallID  string `json:"call_id,omitempty"`
}

// EnqueueCallResponse is returned after a call is queued
type EnqueueCallResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	QueueID string `json:"queue_id,omitempty"`
}

// BalanceResponse carries the account balance and call counters
type BalanceResponse struct {
	Success     bool    `json:"success"`
	Error       string  `json:"error,omitempty"`
	Balance     float64 `json:"balance"`
	Currency    string  `json:"currency"`
	TotalCalls  int64   `json:"total_calls"`
	FailedCalls int64   `json:"failed_calls"`
}

// HealthResponse carries the liveness summary
type HealthResponse struct {
	Success     bool   `json:"success"`
	ActiveCalls int64  `json:"active_calls"`
	Database    bool   `json:"database"`
	Uptime      string `json:"uptime"`
}

// QueuedActionMessage is the reply for media commands deferred behind AMD
const QueuedActionMessage = "Action queued pending AMD completion"
