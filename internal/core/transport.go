package core

import (
	"context"
	"net/url"
)

//go:generate mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks

// Request is a single call to the update backend.
type Request struct {
	Action      Kind
	Nonce       string
	Credentials Credentials
	Payload     Payload
}

// Values merges the payload with the action, the session token and the
// current credentials into the form body sent to the backend.
func (r *Request) Values() url.Values {
	v := r.Payload.Values()
	for key, vals := range r.Credentials.Values() {
		v[key] = vals
	}
	v.Set("action", string(r.Action))
	v.Set("_ajax_nonce", r.Nonce)
	return v
}

// Response is the backend's JSON reply.
type Response struct {
	Success bool         `json:"success"`
	Data    ResponseData `json:"data"`
}

// ResponseData is the payload of a Response. Which fields are set depends on the
// action and on whether it succeeded.
type ResponseData struct {
	Slug         string   `json:"slug,omitempty"`
	Plugin       string   `json:"plugin,omitempty"`
	PluginName   string   `json:"pluginName,omitempty"`
	ThemeName    string   `json:"themeName,omitempty"`
	OldVersion   string   `json:"oldVersion,omitempty"`
	NewVersion   string   `json:"newVersion,omitempty"`
	Error        string   `json:"error,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
	ErrorCode    string   `json:"errorCode,omitempty"`
	Debug        []string `json:"debug,omitempty"`
}

// Message returns the human-readable error text, whichever field carried it.
func (d ResponseData) Message() string {
	if d.ErrorMessage != "" {
		return d.ErrorMessage
	}
	return d.Error
}

// Transport sends requests to the update backend. A server-reported failure is
// returned as a Response with Success=false; only transport problems produce an error.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Lister runs a live search and returns the backend's pre-rendered row markup.
type Lister interface {
	List(ctx context.Context, action, query string) (string, error)
}
