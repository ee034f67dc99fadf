package services

import (
	"context"
	"fmt"

	appconfig "lovehour-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// Pusher delivers APNs notifications. Delivery is best-effort: failures
// are logged and never propagated to the caller's request.
type Pusher struct {
	client *apns2.Client
	topic  string
}

// NewPusher creates an APNs pusher from token-based credentials. Returns
// a disabled pusher when no key file is configured.
func NewPusher(cfg appconfig.APNsConfig) (*Pusher, error) {
	if cfg.KeyFile == "" {
		log.Warn().Msg("APNs key file not configured, push delivery disabled")
		return &Pusher{}, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &Pusher{client: client, topic: cfg.Topic}, nil
}

func (p *Pusher) send(ctx context.Context, deviceToken string, pl *payload.Payload) {
	if p.client == nil || deviceToken == "" {
		return
	}

	res, err := p.client.PushWithContext(ctx, &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       p.topic,
		Payload:     pl,
	})
	if err != nil {
		log.Error().Err(err).Msg("APNs push failed")
		return
	}
	if !res.Sent() {
		log.Warn().
			Int("status", res.StatusCode).
			Str("reason", res.Reason).
			Msg("APNs push rejected")
	}
}

// PhotoPosted tells the partner a new photo-and-caption update landed.
func (p *Pusher) PhotoPosted(ctx context.Context, deviceToken, partnerName string) {
	pl := payload.NewPayload().
		AlertTitle("New update").
		AlertBody(fmt.Sprintf("%s shared a new photo", partnerName)).
		Sound("default")
	p.send(ctx, deviceToken, pl)
}

// Matched tells a user their friend code was used to pair with them.
func (p *Pusher) Matched(ctx context.Context, deviceToken, partnerName string) {
	pl := payload.NewPayload().
		AlertTitle("You're matched").
		AlertBody(fmt.Sprintf("%s matched with you", partnerName)).
		Sound("default")
	p.send(ctx, deviceToken, pl)
}

// Unmatched tells a user their match was dissolved.
func (p *Pusher) Unmatched(ctx context.Context, deviceToken string) {
	pl := payload.NewPayload().
		AlertTitle("Match ended").
		AlertBody("Your partner ended the match").
		Sound("default")
	p.send(ctx, deviceToken, pl)
}

// GateUnlocked tells a user their upload gate is open again.
func (p *Pusher) GateUnlocked(ctx context.Context, deviceToken string) {
	pl := payload.NewPayload().
		AlertTitle("Time to share").
		AlertBody("You can post a new photo now").
		Sound("default")
	p.send(ctx, deviceToken, pl)
}

// NoteAdded tells the partner a new note landed on the shared board.
func (p *Pusher) NoteAdded(ctx context.Context, deviceToken, partnerName string) {
	pl := payload.NewPayload().
		AlertTitle("New note").
		AlertBody(fmt.Sprintf("%s left you a note", partnerName)).
		Sound("default")
	p.send(ctx, deviceToken, pl)
}
