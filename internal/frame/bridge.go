// Package frame accepts job descriptors posted by embedded frames, such as the
// plugin details modal, and routes them to the operations or the badges.
package frame

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sevigo/shiny-updates/internal/board"
	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/jobs"
)

// Actions a frame may post.
const (
	ActionUpdatePlugin         = "updatePlugin"
	ActionInstallPlugin        = "installPlugin"
	ActionDecrementUpdateCount = "decrementUpdateCount"
)

var (
	ErrUnknownAction    = errors.New("unknown frame action")
	ErrMalformedMessage = errors.New("malformed frame message")
)

// Message is the serialized descriptor a frame posts to its parent.
type Message struct {
	Action string       `json:"action"`
	Type   string       `json:"type"`
	Data   core.Payload `json:"data"`
}

// Operations is what the bridge needs from the update service.
type Operations interface {
	UpdatePlugin(origin, plugin, slug string) (*jobs.Future, error)
	InstallPlugin(origin, slug string) (*jobs.Future, error)
}

// Bridge validates and routes frame messages.
type Bridge struct {
	origin    string
	ops       Operations
	counters  *board.Counters
	publisher core.Publisher
	logger    *slog.Logger
}

// NewBridge creates a bridge that only trusts messages from ownOrigin.
func NewBridge(ownOrigin string, ops Operations, counters *board.Counters, publisher core.Publisher, logger *slog.Logger) (*Bridge, error) {
	origin, err := normalizeOrigin(ownOrigin)
	if err != nil {
		return nil, err
	}
	return &Bridge{origin: origin, ops: ops, counters: counters, publisher: publisher, logger: logger}, nil
}

// Accept handles one posted message. Update and install requests return the
// job's future; count decrements return nil.
func (b *Bridge) Accept(origin string, raw []byte) (*jobs.Future, error) {
	got, err := normalizeOrigin(origin)
	if err != nil || got != b.origin {
		b.logger.Warn("rejected frame message", "origin", origin)
		return nil, fmt.Errorf("%w: %q", core.ErrOriginMismatch, origin)
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	switch msg.Action {
	case ActionUpdatePlugin:
		if err := expectType(msg, core.KindUpdatePlugin); err != nil {
			return nil, err
		}
		return b.ops.UpdatePlugin("", msg.Data.Plugin, msg.Data.Slug)

	case ActionInstallPlugin:
		if err := expectType(msg, core.KindInstallPlugin); err != nil {
			return nil, err
		}
		return b.ops.InstallPlugin("", msg.Data.Slug)

	case ActionDecrementUpdateCount:
		entity := core.Entity(msg.Type)
		switch entity {
		case core.EntityPlugin, core.EntityTheme, core.EntityCore, core.EntityTranslation:
		default:
			return nil, fmt.Errorf("%w: unknown update type %q", ErrMalformedMessage, msg.Type)
		}
		if total, changed := b.counters.Decrement(entity); changed {
			b.publisher.Publish(core.CountDecremented{Entity: entity, Total: total})
		}
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, msg.Action)
	}
}

func expectType(msg Message, kind core.Kind) error {
	if msg.Type != "" && msg.Type != string(kind) {
		return fmt.Errorf("%w: %s cannot carry a %q job", ErrMalformedMessage, msg.Action, msg.Type)
	}
	return nil
}

// normalizeOrigin reduces a URL or origin to scheme://host[:port].
func normalizeOrigin(s string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid origin %q: %w", s, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid origin %q", s)
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}
