// Package mailer turns stored-artifact events into notification emails for
// the inspector who filed the checklist.
package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"rigcheck/pkg/bus"
	"rigcheck/pkg/render"
	"rigcheck/services/artifacts"
	"rigcheck/services/checklist"
)

const consumerDurable = "rigcheck-mailer"

// Sender delivers one rendered message. Implementations own transport details.
type Sender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// LogSender writes outgoing mail to the log instead of delivering it. Used in
// development and wherever no SMTP relay is configured.
type LogSender struct {
	Logger zerolog.Logger
}

func (l LogSender) Send(_ context.Context, to []string, subject, body string) error {
	l.Logger.Info().
		Strs("to", to).
		Str("subject", subject).
		Int("body_bytes", len(body)).
		Msg("mail delivery (log only)")
	return nil
}

// Linker issues retrieval links for stored archives and records that a
// notification went out. *artifacts.Store satisfies it.
type Linker interface {
	Link(ctx context.Context, hash string) (string, error)
	MarkNotified(ctx context.Context, hash string) error
}

// Config wires a Consumer.
type Config struct {
	Bus        *bus.Bus
	Linker     Linker
	Sender     Sender
	Inspectors checklist.InspectorDirectory
	Render     *render.Engine
	Logger     zerolog.Logger
}

// Consumer listens for stored-artifact events and notifies the inspector's
// configured recipients.
type Consumer struct {
	bus        *bus.Bus
	linker     Linker
	sender     Sender
	inspectors checklist.InspectorDirectory
	render     *render.Engine
	logger     zerolog.Logger
}

// New validates the configuration and returns a Consumer.
func New(cfg Config) (*Consumer, error) {
	if cfg.Bus == nil {
		return nil, errors.New("bus is required")
	}
	if cfg.Linker == nil {
		return nil, errors.New("linker is required")
	}
	if cfg.Sender == nil {
		return nil, errors.New("sender is required")
	}
	if cfg.Render == nil {
		return nil, errors.New("render engine is required")
	}
	return &Consumer{
		bus:        cfg.Bus,
		linker:     cfg.Linker,
		sender:     cfg.Sender,
		inspectors: cfg.Inspectors,
		render:     cfg.Render,
		logger:     cfg.Logger,
	}, nil
}

// Run subscribes to stored-artifact events until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) (io.Closer, error) {
	return c.bus.Subscribe(ctx, artifacts.SubjectStored, consumerDurable, c.handle)
}

func (c *Consumer) handle(ctx context.Context, data []byte) error {
	var ev artifacts.StoredEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		// Unparseable events are dropped, not redelivered.
		c.logger.Warn().Err(err).Msg("malformed stored event")
		return nil
	}

	if ev.EmailSent {
		return nil
	}

	recipients := c.inspectors.Recipients(ev.Meta.InspectorName)
	if len(recipients) == 0 {
		c.logger.Debug().
			Str("inspector", ev.Meta.InspectorName).
			Str("hash", ev.ChecklistHash).
			Msg("no recipients configured, skipping notification")
		return nil
	}

	linkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	link, err := c.linker.Link(linkCtx, ev.ChecklistHash)
	if err != nil {
		return fmt.Errorf("resolve link for %s: %w", ev.ChecklistHash, err)
	}

	body, err := c.render.Render("report_email.tmpl", map[string]string{
		"ChecklistType":  ev.ChecklistType,
		"ChecklistHash":  ev.ChecklistHash,
		"DriverName":     ev.Meta.DriverName,
		"TruckPlate":     ev.Meta.TruckPlate,
		"TrailerPlate":   ev.Meta.TrailerPlate,
		"InspectorName":  ev.Meta.InspectorName,
		"InspectionDate": ev.Meta.InspectionDate,
		"DownloadURL":    link,
	})
	if err != nil {
		return fmt.Errorf("render notification: %w", err)
	}

	subject := fmt.Sprintf("Inspection report ready (%s)", ev.ChecklistType)
	if err := c.sender.Send(ctx, recipients, subject, body); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	// The mail is already out; a failed flag write must not trigger a
	// redelivery that would send it again.
	if err := c.linker.MarkNotified(ctx, ev.ChecklistHash); err != nil {
		c.logger.Warn().Err(err).Str("hash", ev.ChecklistHash).Msg("could not record notification")
	}

	c.logger.Info().
		Str("hash", ev.ChecklistHash).
		Int("recipients", len(recipients)).
		Msg("notification sent")
	return nil
}
