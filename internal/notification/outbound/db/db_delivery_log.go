package db

import (
	"context"

	"github.com/benefactorum/authotp/internal/notification/entity"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
)

func (s *DB) CreateDeliveryLog(ctx context.Context, in entity.CreateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDeliveryLog")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		INSERT INTO notification_delivery_logs (id, identity_id, channel, trigger_key, recipient, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		in.ID, in.IdentityID, int16(in.Channel), in.TriggerKey.String(), in.Recipient, int16(in.Status),
	)
	err = s.mapError(err)
	return err
}

func (s *DB) UpdateDeliveryLogStatus(ctx context.Context, in entity.UpdateDeliveryLog) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateDeliveryLogStatus")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE notification_delivery_logs
		SET status = $2, provider_response = $3, updated_at = NOW()
		WHERE id = $1`,
		in.ID, int16(in.Status), in.ProviderResponse,
	)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	return nil
}
