package http

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type TextRequest struct {
	Text string `json:"text"`
}

type ConnectionRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
