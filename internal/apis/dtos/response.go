package dtos

type Response struct {
	Success bool        `json:"success"`
	Error   *string     `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type QueryError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
