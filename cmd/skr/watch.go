package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alfredjeanlab/skyrecords/internal/client"
	"github.com/alfredjeanlab/skyrecords/internal/events"
	"github.com/alfredjeanlab/skyrecords/internal/ui"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream template and alias change events",
	Long: `Stream template and alias change events.

Events are read from NATS when a NATS URL is configured (--nats, SKR_NATS_URL,
or the active remote) and from the server's /v1/events/stream endpoint
otherwise.`,
	GroupID: "records",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = os.Getenv("SKR_NATS_URL")
		}
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}
		topic, _ := cmd.Flags().GetString("topic")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if natsURL == "" {
			return watchStream(ctx, recordsClient, topic, cmd.OutOrStdout())
		}

		sub, err := events.NewNATSSubscriber(natsURL,
			nats.Name("skr-watch"),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				slog.Warn("nats: disconnected", "error", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				slog.Info("nats: reconnected")
			}),
		)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer sub.Close()

		return watchEvents(ctx, sub, topic, cmd.OutOrStdout())
	},
}

// watchStream prints events from the server's SSE stream until ctx is done.
func watchStream(ctx context.Context, c client.RecordsClient, topic string, w io.Writer) error {
	var topics []string
	if topic != events.TopicAll {
		topics = []string{topic}
	}
	return c.StreamEvents(ctx, topics, func(data []byte) error {
		if err := printEvent(w, data); err != nil {
			slog.Warn("skipping malformed event", "error", err)
		}
		return nil
	})
}

// watchEvents prints every event received on topic until ctx is done or
// the subscription closes.
func watchEvents(ctx context.Context, sub events.Subscriber, topic string, w io.Writer) error {
	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-ch:
			if !ok {
				return nil
			}
			if err := printEvent(w, data); err != nil {
				slog.Warn("skipping malformed event", "error", err)
			}
		}
	}
}

func printEvent(w io.Writer, data []byte) error {
	h, err := events.ParseHeader(data)
	if err != nil {
		return err
	}
	if jsonOutput {
		_, err := fmt.Fprintln(w, string(data))
		return err
	}

	subject := ""
	switch h.Topic {
	case events.TopicTemplateCreated, events.TopicTemplateChanged:
		var e events.TemplateChanged
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		if e.Template != nil {
			subject = e.Template.ID
		}
	case events.TopicTemplateDisabled:
		var e events.TemplateDisabled
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		subject = e.Name
	case events.TopicAliasSaved:
		var e events.AliasSaved
		if err := json.Unmarshal(data, &e); err != nil {
			return err
		}
		if e.Alias != nil {
			subject = e.Alias.Address + " -> " + e.Alias.RepresentServiceInstanceID
		}
	}

	_, err = fmt.Fprintf(w, "%s  %s  %s  %s\n",
		ui.RenderMuted(h.OccurredAt.Format("15:04:05")),
		ui.RenderAccent(h.Topic),
		subject,
		ui.RenderMuted(h.EventID),
	)
	return err
}

func init() {
	watchCmd.Flags().String("nats", "", "NATS URL (defaults to SKR_NATS_URL or the active remote)")
	watchCmd.Flags().String("topic", events.TopicAll, "subject to subscribe to")
}
