package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/sevigo/shiny-updates/internal/app"
	"github.com/sevigo/shiny-updates/internal/core"
	"github.com/sevigo/shiny-updates/internal/events"
	"github.com/sevigo/shiny-updates/internal/notify"
	"github.com/sevigo/shiny-updates/internal/wire"
)

const cliOrigin = "cli"

// session is an in-process coordinator whose messages are printed to the
// terminal and whose credential requests are answered from flags.
type session struct {
	app     *app.App
	cleanup func()
	stop    []func()
}

func openSession(ctx context.Context) (*session, error) {
	a, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize app services: %w", err)
	}
	s := &session{app: a, cleanup: cleanup}

	out := notify.NewWriterSink(os.Stdout)
	s.stop = append(s.stop,
		events.On(a.Bus, func(ev core.MessageShown) { out.Show(ev.Message) }),
		events.On(a.Bus, func(ev core.CredentialsRequested) {
			// answered outside the publisher's call stack
			go s.answerCredentials(ev)
		}),
		events.On(a.Bus, func(ev core.CredentialsCancelled) {
			dimColor.Printf("cancelled %s %s\n", ev.Job.Kind, ev.Job.Subject())
		}),
	)
	return s, nil
}

// answerCredentials submits the configured credentials. A retry after the
// site rejected them, or a missing password, cancels instead so the command
// cannot loop.
func (s *session) answerCredentials(ev core.CredentialsRequested) {
	password := viper.GetString("SITE_FS_PASSWORD")
	if ev.Error != "" || password == "" {
		if ev.Error != "" {
			errorColor.Printf("credentials rejected: %s\n", ev.Error)
		} else {
			warnColor.Println("filesystem credentials are required: pass --fs-password or set SITE_FS_PASSWORD")
		}
		if _, err := s.app.Coordinator.CancelCredentials(); err != nil {
			s.app.Logger.Error("failed to cancel credentials", "error", err)
		}
		return
	}

	creds := s.app.Coordinator.Gate().Credentials()
	creds.Password = password
	if _, err := s.app.Coordinator.SubmitCredentials(creds); err != nil {
		errorColor.Printf("credentials not accepted: %v\n", err)
		if _, err := s.app.Coordinator.CancelCredentials(); err != nil {
			s.app.Logger.Error("failed to cancel credentials", "error", err)
		}
	}
}

// Close waits for queued messages to be shown, then shuts everything down.
func (s *session) Close() {
	s.app.Throttler.Wait()
	for _, stop := range s.stop {
		stop()
	}
	s.app.Close()
	s.cleanup()
}
