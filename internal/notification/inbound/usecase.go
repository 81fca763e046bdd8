package inbound

import (
	"context"

	"github.com/benefactorum/authotp/internal/notification/usecase"
)

type uc interface {
	ConsumeOTPIssued(ctx context.Context, in usecase.ConsumeOTPIssuedInput) error
}
