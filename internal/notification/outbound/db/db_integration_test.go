//go:build integration

package db

import (
	"context"
	"testing"

	"github.com/benefactorum/authotp/db/migrations"
	"github.com/benefactorum/authotp/internal/notification/entity"
	"github.com/benefactorum/authotp/internal/pkg/goerror"
	"github.com/benefactorum/authotp/internal/pkg/instrument"
	"github.com/benefactorum/authotp/internal/pkg/valueobject"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestDB_DeliveryLog(t *testing.T) {
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("authotp"),
		tcpostgres.WithUsername("authotp"),
		tcpostgres.WithPassword("authotp"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := migrations.FS.ReadFile("000002_notification.up.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	s := NewDB(pool, instrument.NewNoop())

	require.NoError(t, s.CreateDeliveryLog(ctx, entity.CreateDeliveryLog{
		ID:         1,
		IdentityID: 42,
		Channel:    entity.ChannelEmail,
		TriggerKey: entity.TriggerKeyOTPCode,
		Recipient:  "alice@example.com",
		Status:     entity.DeliveryStatusQueued,
	}))

	err = s.CreateDeliveryLog(ctx, entity.CreateDeliveryLog{ID: 1, TriggerKey: entity.TriggerKeyOTPCode})
	assert.ErrorIs(t, err, goerror.ErrConflict)

	require.NoError(t, s.UpdateDeliveryLogStatus(ctx, entity.UpdateDeliveryLog{
		ID:               1,
		Status:           entity.DeliveryStatusFailed,
		ProviderResponse: valueobject.JSONMap{"error": "421 try later"},
	}))

	var (
		status   int16
		response valueobject.JSONMap
	)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT status, provider_response FROM notification_delivery_logs WHERE id = 1`,
	).Scan(&status, &response))
	assert.Equal(t, int16(entity.DeliveryStatusFailed), status)
	assert.Equal(t, "421 try later", response["error"])

	err = s.UpdateDeliveryLogStatus(ctx, entity.UpdateDeliveryLog{ID: 99, Status: entity.DeliveryStatusSent})
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}
