// Package concierge produces the salon's friendly copy. Every call falls back
// to a canned reply, so callers never see an error.
package concierge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
)

type Kind string

const (
	KindConsultation Kind = "consultation"
	KindConfirmation Kind = "confirmation"
	KindLook         Kind = "look"
)

const (
	consultFailed = "I would love to help! Based on your mood, a relaxing Signature Haircut or a Deep Tissue Massage would be perfect for you."
	consultEmpty  = "I recommend our Signature Haircut for a fresh and modern look!"
	lookFailed    = "Based on your features, our Balayage service would beautifully complement your skin tone."
	lookEmpty     = "You look amazing! I'd recommend a Signature Haircut to highlight your features."
)

type Concierge struct {
	gen        Generator
	logger     *slog.Logger
	timeout    time.Duration
	onFallback func(Kind)
}

// New wraps gen. onFallback, when set, is called each time a canned reply is used.
func New(gen Generator, logger *slog.Logger, timeout time.Duration, onFallback func(Kind)) *Concierge {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Concierge{gen: gen, logger: logger, timeout: timeout, onFallback: onFallback}
}

// Consult recommends one or two services for a free-form client message.
func (c *Concierge) Consult(ctx context.Context, message string, services []model.Service) string {
	names := make([]string, 0, len(services))
	for _, s := range services {
		names = append(names, fmt.Sprintf("%s (PHP %d)", s.Name, s.Price))
	}
	prompt := fmt.Sprintf(
		"You are the concierge of a luxury salon in Manila. A client writes: %q. "+
			"Our menu: %s. Suggest one or two matching services in a warm, professional tone, under 80 words.",
		strings.TrimSpace(message), strings.Join(names, ", "))
	return c.generate(ctx, KindConsultation, prompt, nil, consultFailed, consultEmpty)
}

// Confirmation phrases a booking confirmation.
func (c *Concierge) Confirmation(ctx context.Context, a model.Appointment, serviceName, staffName string) string {
	prompt := fmt.Sprintf(
		"Write a short, warm booking confirmation for %s: %s with %s on %s at %s. Under 50 words.",
		a.ClientName, serviceName, staffName, a.Date, a.Time)
	failed := fmt.Sprintf("Booking confirmed! We are excited to see you on %s for your %s.", a.Date, serviceName)
	empty := fmt.Sprintf("Booking confirmed! We are excited to see you on %s for your %s with %s.", a.Date, serviceName, staffName)
	return c.generate(ctx, KindConfirmation, prompt, nil, failed, empty)
}

// AnalyzeLook recommends a service from a JPEG photo.
func (c *Concierge) AnalyzeLook(ctx context.Context, image []byte) string {
	prompt := "Look at this client's hair and skin and recommend exactly one of: Haircut, Balayage, Facial, Lash Extension. " +
		"Explain briefly why it suits them. Flattering and concise, at most 60 words."
	return c.generate(ctx, KindLook, prompt, image, lookFailed, lookEmpty)
}

func (c *Concierge) generate(ctx context.Context, kind Kind, prompt string, image []byte, failed, empty string) string {
	if c.gen == nil {
		c.fallback(kind, ErrNotConfigured)
		return failed
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.gen.Generate(ctx, prompt, image)
	if err != nil {
		c.fallback(kind, err)
		return failed
	}
	if strings.TrimSpace(text) == "" {
		c.fallback(kind, nil)
		return empty
	}
	return text
}

func (c *Concierge) fallback(kind Kind, err error) {
	if err != nil && err != ErrNotConfigured {
		c.logger.Warn("generative text failed; using canned reply", "kind", kind, "err", err)
	}
	if c.onFallback != nil {
		c.onFallback(kind)
	}
}
