// Package payout abstracts outbound value transfers (claims, sales
// withdrawals, purchase refunds, dust rescue). Services call the sender
// after all state changes inside the same DB transaction, so a failed send
// rolls the whole operation back.
package payout

import (
	"context"

	"github.com/rs/zerolog/log"

	"wattshare-backend/internal/domain"
)

// Sender delivers value to a recipient address.
type Sender interface {
	Send(ctx context.Context, to string, amount domain.Wei, memo string) error
}

// LogSender records the outbound transfer in the application log. It stands
// in for the settlement rail in development and single-node deployments.
type LogSender struct{}

func (s *LogSender) Send(ctx context.Context, to string, amount domain.Wei, memo string) error {
	log.Info().
		Str("to", to).
		Str("amount_wei", amount.String()).
		Str("memo", memo).
		Msg("Outbound transfer")
	return nil
}
