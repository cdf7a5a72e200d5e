package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/shiny-updates/internal/board"
	"github.com/sevigo/shiny-updates/internal/core"
)

var (
	slugFlag   string
	localeFlag string
	reinstall  bool
	timeout    time.Duration
)

func newOperationCmd(verb core.Verb, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(verb) + " [plugin|theme|core|translations] [id]",
		Short: short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runOperation(verb, args)
		},
	}
	cmd.Flags().StringVar(&slugFlag, "slug", "", "Directory slug of the plugin (defaults to the manifest entry)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "How long to wait for the operation")
	if verb == core.VerbUpdate {
		cmd.Flags().StringVar(&localeFlag, "locale", "", "Locale of the core package")
		cmd.Flags().BoolVar(&reinstall, "reinstall", false, "Reinstall the current core version")
	}
	return cmd
}

func runOperation(verb core.Verb, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	kind, payload, err := buildJob(verb, args, s.app.Board)
	if err != nil {
		return err
	}

	titleColor.Printf("%s %s\n", kind, core.Job{Kind: kind, Payload: payload}.Subject())
	future, err := s.app.Service.Run(cliOrigin, kind, payload)
	if err != nil {
		return err
	}
	outcome, err := future.Wait(ctx)
	if err != nil {
		return fmt.Errorf("gave up waiting: %w", err)
	}

	switch outcome.Status {
	case core.StatusSucceeded:
		successColor.Println("done")
		return nil
	case core.StatusCancelled:
		return fmt.Errorf("%s cancelled", kind)
	default:
		return outcome.Err
	}
}

// buildJob maps command arguments onto a job kind and payload, filling gaps
// from the manifest.
func buildJob(verb core.Verb, args []string, b *board.Board) (core.Kind, core.Payload, error) {
	entity := core.Entity(args[0])
	if entity == "translations" {
		entity = core.EntityTranslation
	}
	id := ""
	if len(args) > 1 {
		id = args[1]
	}

	var kind core.Kind
	switch entity {
	case core.EntityTranslation:
		kind = core.KindUpdateTranslations
	default:
		kind = core.Kind(string(verb) + "-" + string(entity))
	}
	if !kind.Valid() || kind.Verb() != verb {
		return "", core.Payload{}, fmt.Errorf("cannot %s %s", verb, args[0])
	}

	var p core.Payload
	switch entity {
	case core.EntityPlugin:
		if id == "" {
			return "", p, fmt.Errorf("%s plugin needs a plugin basename or slug", verb)
		}
		p.Slug = slugFlag
		if verb == core.VerbInstall {
			if p.Slug == "" {
				p.Slug = id
			}
			break
		}
		p.Plugin = id
		if row, ok := b.Row(core.Subject{Entity: core.EntityPlugin, ID: id}); ok && p.Slug == "" {
			p.Slug = row.Slug
		}
	case core.EntityTheme:
		if id == "" {
			return "", p, fmt.Errorf("%s theme needs a slug", verb)
		}
		p.Slug = id
	case core.EntityCore:
		if row, ok := b.Row(core.Subject{Entity: core.EntityCore, ID: core.CoreSubjectID}); ok {
			p.Version, p.Locale = row.NewVersion, row.Locale
			if reinstall {
				p.Version = row.Version
			}
		}
		if id != "" {
			p.Version = id
		}
		if localeFlag != "" {
			p.Locale = localeFlag
		}
		p.Reinstall = reinstall
		if p.Version == "" {
			return "", p, fmt.Errorf("update core needs a version")
		}
	}
	return kind, p, nil
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.AddCommand(
		newOperationCmd(core.VerbInstall, "Installs a plugin or theme from the directory"),
		newOperationCmd(core.VerbUpdate, "Updates a plugin, theme, core or the translations"),
		newOperationCmd(core.VerbDelete, "Deletes a plugin or theme"),
	)
}
