package main

import (
	"context"
	"time"

	"github.com/benefactorum/authotp/internal/app"
)

const shutdownTimeout = 15 * time.Second

// @title       Benefactorum Auth API
// @version     1.0
// @description Passwordless email one-time-code authentication.
// @server      http://localhost:8080
func main() {
	a := app.New()
	<-a.Start()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Stop(ctx)
}
