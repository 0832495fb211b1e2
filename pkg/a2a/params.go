package a2a

// TaskSendParams represents the parameters for sending a task message
type TaskSendParams struct {
	// ID is the unique identifier for the task being initiated or continued
	ID string `json:"id"`
	// SessionID is informational; the agent keeps the session it assigned
	SessionID string `json:"sessionId,omitempty"`
	// Message is the message content to send to the agent for processing
	Message *Message `json:"message"`
	// HistoryLength is an optional parameter to specify how much message history to include
	HistoryLength *int `json:"historyLength,omitempty"`
	// PushNotification is accepted for compatibility and otherwise ignored
	PushNotification *PushNotificationConfig `json:"pushNotification,omitempty"`
	// Metadata is optional metadata associated with sending this message
	Metadata Metadata `json:"metadata,omitempty"`
}

// TaskQueryParams represents the parameters for querying task information
type TaskQueryParams struct {
	ID            string   `json:"id"`
	HistoryLength *int     `json:"historyLength,omitempty"`
	Metadata      Metadata `json:"metadata,omitempty"`
}

// PushNotificationConfig represents the configuration for push notifications
type PushNotificationConfig struct {
	URL            string               `json:"url"`
	Token          *string              `json:"token,omitempty"`
	Authentication *AgentAuthentication `json:"authentication,omitempty"`
}

/*
SendTaskResult is the result of tasks/send. Status carries only the
state the send finished in, completed or failed.
*/
type SendTaskResult struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	Status    TaskState  `json:"status"`
	Artifacts []Artifact `json:"artifacts"`
}

/*
GetTaskResult is the result of tasks/get.
*/
type GetTaskResult struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts"`
}

func NewGetTaskResult(task Task) GetTaskResult {
	artifacts := task.Artifacts

	if artifacts == nil {
		artifacts = []Artifact{}
	}

	return GetTaskResult{
		ID:        task.ID,
		SessionID: task.SessionID,
		Status:    task.Status,
		Artifacts: artifacts,
	}
}

// Task rebuilds the visible part of a task; history is not carried by tasks/get.
func (result GetTaskResult) Task() Task {
	return Task{
		ID:        result.ID,
		SessionID: result.SessionID,
		Status:    result.Status,
		Artifacts: result.Artifacts,
	}
}
