// Package models defines the core data structures for FixPipe.
//
// It includes the troubleshooting flow schema, session state, interpretation
// results, and API envelope types shared across modules.
package models

import (
	"errors"
	"strings"
)

// Validation constants for input validation
const (
	// MaxMessageLength defines the maximum allowed length for an inbound chat message
	MaxMessageLength = 4096
	// MaxMediaURLCount defines the maximum number of media attachments accepted per message
	MaxMediaURLCount = 5
)

// Error variables for better error handling and testability
var (
	ErrEmptyFlowID      = errors.New("flow ID cannot be empty")
	ErrEmptyMessage     = errors.New("message cannot be empty")
	ErrMessageTooLong   = errors.New("message exceeds maximum length")
	ErrTooManyMediaURLs = errors.New("too many media attachments")
	ErrUnknownFlow      = errors.New("unknown flow ID")
	ErrSessionNotFound  = errors.New("session not found")
)

// StartSessionRequest is the payload for starting a troubleshooting session.
type StartSessionRequest struct {
	IssueID        string `json:"issue_id,omitempty"`
	FlowID         string `json:"flow_id"`
	InitialMessage string `json:"initial_message,omitempty"`
}

// Validate checks the start-session payload for well-formedness.
func (r *StartSessionRequest) Validate() error {
	if strings.TrimSpace(r.FlowID) == "" {
		return ErrEmptyFlowID
	}
	if len(r.InitialMessage) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// ProcessMessageRequest is the payload for feeding a user reply into a session.
type ProcessMessageRequest struct {
	Message   string   `json:"message"`
	MediaURLs []string `json:"media_urls,omitempty"`
}

// Validate checks the process-message payload for well-formedness.
func (r *ProcessMessageRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" && len(r.MediaURLs) == 0 {
		return ErrEmptyMessage
	}
	if len(r.Message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if len(r.MediaURLs) > MaxMediaURLCount {
		return ErrTooManyMediaURLs
	}
	return nil
}

// MessageStatus represents the delivery status of an outbound chat message.
type MessageStatus string

const (
	// MessageStatusSent indicates the message was sent.
	MessageStatusSent MessageStatus = "sent"
	// MessageStatusDelivered indicates the message was delivered.
	MessageStatusDelivered MessageStatus = "delivered"
	// MessageStatusRead indicates the message was read.
	MessageStatusRead MessageStatus = "read"
	// MessageStatusFailed indicates the message failed to send.
	MessageStatusFailed MessageStatus = "failed"
)

// Receipt represents a delivery receipt event for an outbound message.
type Receipt struct {
	To     string        `json:"to"`
	Status MessageStatus `json:"status"`
	Time   int64         `json:"time"`
}

// Response represents an incoming chat message from a tenant.
type Response struct {
	From      string   `json:"from"`
	Body      string   `json:"body"`
	MediaURLs []string `json:"media_urls,omitempty"`
	Time      int64    `json:"time"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
