package models

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse carries the assistant's reply
type ChatResponse struct {
	Response string `json:"response"`
}
