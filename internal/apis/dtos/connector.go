package dtos

import "mongobridge/pkg/connector"

type ExecuteRequest struct {
	Target         connector.Target         `json:"target" binding:"required"`
	Collection     string                   `json:"collection" binding:"required"`
	Operation      string                   `json:"operation" binding:"required"`
	Params         connector.Params         `json:"params"`
	Items          []map[string]interface{} `json:"items"`
	ContinueOnFail bool                     `json:"continue_on_fail"`
}

type ExecuteResponse struct {
	InvocationID string           `json:"invocation_id"`
	Operation    string           `json:"operation"`
	Collection   string           `json:"collection"`
	Items        []connector.Item `json:"items"`
}

type PingRequest struct {
	Target connector.Target `json:"target" binding:"required"`
}

type PingResponse struct {
	Reachable   bool     `json:"reachable"`
	Collections []string `json:"collections,omitempty"`
}
