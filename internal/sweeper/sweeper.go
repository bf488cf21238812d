package sweeper

import "context"

//go:generate go run go.uber.org/mock/mockgen -source=sweeper.go -destination=mocks/mock.go

// Report summarises one tick.
type Report struct {
	Due       int
	Published int
	Failed    int
	Skipped   int
}

type Client interface {
	// Schedule starts the periodic jobs; they stop when ctx is cancelled.
	Schedule(ctx context.Context) error
	// Sweep runs a single tick.
	Sweep(ctx context.Context) Report
}
