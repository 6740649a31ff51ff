package session

import (
	"github.com/google/uuid"

	"github.com/Agrid-Dev/renotherm/internal/ports"
	"github.com/Agrid-Dev/renotherm/internal/thermal"
)

var _ ports.ProjectService = (*thermal.Project)(nil)

// Session binds a running project to the id controllers publish it under.
type Session struct {
	ID      string
	Project *thermal.Project
}

// New returns a session for p. An empty id gets a random one.
func New(id string, p *thermal.Project) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{ID: id, Project: p}
}
