package main

import (
	"github.com/sevigo/shiny-updates/internal/app"
	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/jobs"
	"github.com/sevigo/shiny-updates/internal/updates"
)

// Indicates that the core application services have been initialized.
type appInitializedMsg struct {
	app     *app.App
	cleanup func()
	err     error
}

// eventMsg carries one event from the application bus.
type eventMsg struct{ event core.Event }

// streamClosedMsg is sent once the event stream ends.
type streamClosedMsg struct{}

// operationStartedMsg reports that a job was handed to the dispatcher.
type operationStartedMsg struct {
	future *jobs.Future
	err    error
}

type batchStartedMsg struct {
	batch *updates.Batch
	err   error
}

// credentialsResultMsg is the result of submitting or cancelling the modal.
type credentialsResultMsg struct {
	submitted bool
	origin    string
	err       error
}
