package model

// MessageTemplateNotFound is the message carried by a failed change on a
// template that was never created.
const MessageTemplateNotFound = "Can't find the template"

// TemplateChangeStatus reports the outcome of a template mutation.
// A failed status always carries a message; a successful one never does.
type TemplateChangeStatus struct {
	Status  bool   `json:"status"`
	Message string `json:"message,omitempty"`
}

// ChangeSucceeded returns a successful status.
func ChangeSucceeded() *TemplateChangeStatus {
	return &TemplateChangeStatus{Status: true}
}

// ChangeFailed returns a failed status with the given message.
func ChangeFailed(message string) *TemplateChangeStatus {
	return &TemplateChangeStatus{Status: false, Message: message}
}
