package cmds

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/coach/pkg/events"
	"github.com/go-go-golems/coach/pkg/logging"
	"github.com/go-go-golems/coach/pkg/replyclient"
	"github.com/go-go-golems/coach/pkg/session"
	"github.com/go-go-golems/coach/pkg/settings"
	"github.com/go-go-golems/coach/pkg/ui"
	"github.com/go-go-golems/coach/pkg/ui/plain"
)

func NewChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the coach",
		Long: "Opens a conversation with the coach. The full-screen interface is used when " +
			"stdout is a terminal, a line-oriented one otherwise (or with --plain).",
		Args: cobra.NoArgs,
		RunE: RunChat,
	}
}

func RunChat(cmd *cobra.Command, args []string) error {
	s, err := settings.Load(viper.GetViper())
	if err != nil {
		return err
	}

	client, err := replyclient.New(s.APIURL, replyclient.WithAllowRemoteHTTP(s.AllowRemoteHTTP))
	if err != nil {
		return err
	}

	router, err := events.NewEventRouter(events.WithVerbose(viper.GetBool("verbose")))
	if err != nil {
		return errors.Wrap(err, "could not create event router")
	}
	defer func() {
		_ = router.Close()
	}()

	controller := session.New(client,
		session.WithGreeting(s.Greeting),
		session.WithFallbackText(s.FallbackText),
		session.WithSink(router.Sink(events.DefaultTopic)),
	)
	defer controller.Close()

	log.Info().
		Str("session_id", controller.SessionID).
		Str("endpoint", client.Endpoint()).
		Msg("Starting session")

	useTUI := !s.Plain && isatty.IsTerminal(os.Stdout.Fd())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	var frontend func(ctx context.Context) error
	if useTUI {
		// log lines would tear the alt screen, keep only the log file
		cfg := logging.ConfigFromViper(viper.GetViper())
		cfg.Quiet = true
		if err := logging.InitLogger(cfg); err != nil {
			return err
		}

		options := []tea.ProgramOption{tea.WithAltScreen()}
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			tty, err := ui.OpenTTY()
			if err != nil {
				return err
			}
			defer func() {
				_ = tty.Close()
			}()
			options = append(options, tea.WithInput(tty))
		}

		p := tea.NewProgram(
			ui.NewModel(controller, ui.WithExport(s.ExportDir, s.ExportFormat)),
			options...,
		)
		router.AddEventHandler("ui", events.DefaultTopic, ui.ForwardFunc(p))

		frontend = func(ctx context.Context) error {
			_, err := p.Run()
			return err
		}
	} else {
		router.AddEventHandler("log", events.DefaultTopic, func(ctx context.Context, ev events.Event) error {
			log.Debug().Object("event", ev).Msg("Session event")
			return nil
		})

		frontend = plain.New(controller, os.Stdin, os.Stdout).Run
	}

	eg.Go(func() error {
		return router.Run(ctx)
	})
	eg.Go(func() error {
		defer cancel()
		select {
		case <-router.Running():
		case <-ctx.Done():
			return nil
		}
		return frontend(ctx)
	})

	return eg.Wait()
}
