// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// Entity is one of the four kinds of things the site can install, update or delete.
type Entity string

const (
	EntityPlugin      Entity = "plugin"
	EntityTheme       Entity = "theme"
	EntityCore        Entity = "core"
	EntityTranslation Entity = "translation"
)

// Verb is the filesystem mutation a job performs.
type Verb string

const (
	VerbInstall Verb = "install"
	VerbUpdate  Verb = "update"
	VerbDelete  Verb = "delete"
)

// Kind identifies a job and doubles as the AJAX action name sent to the backend.
type Kind string

const (
	KindInstallPlugin      Kind = "install-plugin"
	KindUpdatePlugin       Kind = "update-plugin"
	KindDeletePlugin       Kind = "delete-plugin"
	KindInstallTheme       Kind = "install-theme"
	KindUpdateTheme        Kind = "update-theme"
	KindDeleteTheme        Kind = "delete-theme"
	KindUpdateCore         Kind = "update-core"
	KindUpdateTranslations Kind = "update-translations"
)

var kindShapes = map[Kind]struct {
	entity Entity
	verb   Verb
}{
	KindInstallPlugin:      {EntityPlugin, VerbInstall},
	KindUpdatePlugin:       {EntityPlugin, VerbUpdate},
	KindDeletePlugin:       {EntityPlugin, VerbDelete},
	KindInstallTheme:       {EntityTheme, VerbInstall},
	KindUpdateTheme:        {EntityTheme, VerbUpdate},
	KindDeleteTheme:        {EntityTheme, VerbDelete},
	KindUpdateCore:         {EntityCore, VerbUpdate},
	KindUpdateTranslations: {EntityTranslation, VerbUpdate},
}

// ParseKind converts an action name into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown job kind %q", s)
	}
	return k, nil
}

// Valid reports whether k is one of the known job kinds.
func (k Kind) Valid() bool {
	_, ok := kindShapes[k]
	return ok
}

// Entity returns the entity kind the job operates on.
func (k Kind) Entity() Entity {
	return kindShapes[k].entity
}

// Verb returns the mutation the job performs.
func (k Kind) Verb() Verb {
	return kindShapes[k].verb
}

// Subject names the row or card a job is for. It travels with the job so the
// result can be applied without looking anything up in rendered output.
type Subject struct {
	Entity Entity `json:"entity" yaml:"entity"`
	ID     string `json:"id" yaml:"id"`
}

// Fixed subject identifiers for the singleton entities.
const (
	CoreSubjectID        = "core"
	TranslationSubjectID = "translations"
)

func (s Subject) String() string {
	return string(s.Entity) + ":" + s.ID
}

// Payload carries the handler-specific identifying fields of a job.
type Payload struct {
	Slug      string `json:"slug,omitempty"`
	Plugin    string `json:"plugin,omitempty"`
	Version   string `json:"version,omitempty"`
	Locale    string `json:"locale,omitempty"`
	Reinstall bool   `json:"reinstall,omitempty"`
}

// Values returns the transport fields of the payload. Empty fields are omitted.
func (p Payload) Values() url.Values {
	v := url.Values{}
	if p.Slug != "" {
		v.Set("slug", p.Slug)
	}
	if p.Plugin != "" {
		v.Set("plugin", p.Plugin)
	}
	if p.Version != "" {
		v.Set("version", p.Version)
	}
	if p.Locale != "" {
		v.Set("locale", p.Locale)
	}
	if p.Reinstall {
		v.Set("reinstall", strconv.FormatBool(p.Reinstall))
	}
	return v
}

// Job is a unit of work routed through the dispatcher.
type Job struct {
	ID      string  `json:"id"`
	Kind    Kind    `json:"type"`
	Payload Payload `json:"data"`
	// Origin identifies the control that triggered the job. It is only used to
	// return keyboard focus after the credentials modal closes.
	Origin string `json:"-"`
}

// NewJob creates a job with a fresh identifier.
func NewJob(kind Kind, payload Payload) Job {
	return Job{
		ID:      uuid.NewString(),
		Kind:    kind,
		Payload: payload,
	}
}

// Subject derives the row a job applies to from its kind and payload.
func (j Job) Subject() Subject {
	switch j.Kind.Entity() {
	case EntityPlugin:
		id := j.Payload.Plugin
		if id == "" {
			id = j.Payload.Slug
		}
		return Subject{Entity: EntityPlugin, ID: id}
	case EntityTheme:
		return Subject{Entity: EntityTheme, ID: j.Payload.Slug}
	case EntityCore:
		return Subject{Entity: EntityCore, ID: CoreSubjectID}
	case EntityTranslation:
		return Subject{Entity: EntityTranslation, ID: TranslationSubjectID}
	default:
		return Subject{}
	}
}

// Status is the terminal state of a job.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome is the typed result of a job. Err is set for failed and cancelled
// jobs; Response is set whenever the backend answered.
type Outcome struct {
	Job      Job
	Status   Status
	Response *Response
	Err      error
}

// Succeeded reports whether the job completed successfully.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSucceeded
}
