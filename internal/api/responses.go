package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// WebhookAck is the only body the payment provider ever receives on success.
type WebhookAck struct {
	Received bool `json:"received" example:"true"`
}
