package http

import (
	"github.com/nats-io/nats.go"

	"github.com/alexvidal/safewalk/internal/adapters/valkey"
	"github.com/alexvidal/safewalk/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	State        *usecases.AssessmentState
	Orchestrator *usecases.Orchestrator
	Reconciler   *usecases.Reconciler
	Chat         *usecases.ChatService
	NATS         *nats.Conn
	Cache        *valkey.Cache
}
