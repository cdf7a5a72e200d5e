package core

// Event is a notification published by the coordinator or the operation
// handlers. Observers switch on the concrete type.
type Event interface {
	EventName() string
}

// Publisher accepts events for delivery to observers.
type Publisher interface {
	Publish(Event)
}

// JobQueued is published when a job is deferred because the lock is held.
type JobQueued struct {
	Job   Job `json:"job"`
	Depth int `json:"depth"`
}

// JobDispatched is published when a job's request is sent.
type JobDispatched struct {
	Job Job `json:"job"`
}

// JobCompleted is published once per job, after its future resolved.
type JobCompleted struct {
	Job      Job       `json:"job"`
	Status   string    `json:"status"`
	Response *Response `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// CredentialsRequested is published when the credentials modal opens. Error is
// set when the modal re-opens after the backend rejected the credentials.
type CredentialsRequested struct {
	Origin string `json:"origin,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CredentialsSubmitted is published once credentials are accepted.
type CredentialsSubmitted struct {
	Origin string `json:"origin,omitempty"`
}

// CredentialsCancelled is published once for every queued job discarded when
// the credentials modal is cancelled.
type CredentialsCancelled struct {
	Job Job `json:"job"`
}

// CountDecremented is published after a pending-update badge changed.
type CountDecremented struct {
	Entity Entity `json:"entity"`
	Total  int    `json:"total"`
}

// MessageShown is published when the throttler displays a message.
type MessageShown struct {
	Message Message `json:"message"`
}

// BulkCompleted is published when every row of an update-all batch resolved.
type BulkCompleted struct {
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Cancelled int      `json:"cancelled"`
	Errors    []string `json:"errors,omitempty"`
}

func (JobQueued) EventName() string            { return "job-queued" }
func (JobDispatched) EventName() string        { return "job-dispatched" }
func (JobCompleted) EventName() string         { return "job-completed" }
func (CredentialsRequested) EventName() string { return "credential-modal-open" }
func (CredentialsSubmitted) EventName() string { return "credential-modal-submit" }
func (CredentialsCancelled) EventName() string { return "credential-modal-cancel" }
func (CountDecremented) EventName() string     { return "update-count-decremented" }
func (MessageShown) EventName() string         { return "message-shown" }
func (BulkCompleted) EventName() string        { return "bulk-update-complete" }
