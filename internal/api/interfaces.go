package api

import (
	"context"

	"github.com/blockedby/hiring-pipeline/internal/remote"
	"github.com/blockedby/hiring-pipeline/internal/repository"
)

// Backend is the pipeline service the handlers delegate to.
// *hiring.Service satisfies it.
type Backend interface {
	remote.Boundary
}

// StatsProvider aggregates pipeline counts.
type StatsProvider interface {
	Stats(ctx context.Context, jobID string) (*repository.PipelineStats, error)
}
