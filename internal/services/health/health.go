package health

import (
	"context"
	"database/sql"
	"time"

	"cv-builder/cv/nlp"
)

// Status is the /health payload.
type Status struct {
	OK         bool   `json:"ok"`
	Tagging    bool   `json:"tagging"`
	Statistics bool   `json:"statistics"`
	Converter  string `json:"converter"`
	Database   string `json:"database"`
}

// Service reports process capabilities and dependency reachability.
type Service struct {
	caps      nlp.Capabilities
	converter string
	db        *sql.DB
}

// NewService constructs a health service. db may be nil when records are
// kept in memory.
func NewService(caps nlp.Capabilities, converter string, db *sql.DB) *Service {
	return &Service{caps: caps, converter: converter, db: db}
}

// Status checks the database with a short timeout. Degraded capabilities do
// not make the service unhealthy.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{
		OK:         true,
		Tagging:    s.caps.Tagging,
		Statistics: s.caps.Statistics,
		Converter:  s.converter,
		Database:   "memory",
	}
	if s.db == nil {
		return st
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		st.OK = false
		st.Database = "unreachable"
		return st
	}
	st.Database = "ok"
	return st
}
