// Package neo4j serves the unsafe drug pair table from a drug interaction
// graph.  It is an optional override of the built-in static table; the
// interaction checker falls back to the defaults when the graph is
// unreachable.
package neo4j

import (
	"context"
	"strings"

	neo4jgo "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/MedRx-Intelligence/internal/config"
	"github.com/turtacn/MedRx-Intelligence/internal/extraction"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

const pairsQuery = `
MATCH (a:Drug)-[:INTERACTS_WITH]-(b:Drug)
WHERE a.name < b.name
RETURN a.name AS first, b.name AS second`

// PairSource implements extraction.PairSource over the interaction graph.
type PairSource struct {
	driver   neo4jgo.DriverWithContext
	database string
	logger   logging.Logger
}

// NewPairSource connects to the graph and verifies connectivity.
func NewPairSource(ctx context.Context, cfg config.Neo4jConfig, logger logging.Logger) (*PairSource, error) {
	if !cfg.Enabled() {
		return nil, errors.New(errors.ErrCodeBadRequest, "neo4j uri not configured")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	driver, err := neo4jgo.NewDriverWithContext(cfg.URI, neo4jgo.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "create neo4j driver")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "verify neo4j connectivity")
	}
	return &PairSource{driver: driver, database: cfg.Database, logger: logger.Named("neo4j.pairs")}, nil
}

// Pairs queries every interacting drug pair.  Names come back lowercased to
// match the checker's presence map.
func (s *PairSource) Pairs(ctx context.Context) ([]extraction.InteractionPair, error) {
	session := s.driver.NewSession(ctx, neo4jgo.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4jgo.AccessModeRead,
	})
	defer session.Close(ctx)

	records, err := neo4jgo.ExecuteRead(ctx, session,
		func(tx neo4jgo.ManagedTransaction) ([]extraction.InteractionPair, error) {
			result, err := tx.Run(ctx, pairsQuery, nil)
			if err != nil {
				return nil, err
			}
			var pairs []extraction.InteractionPair
			for result.Next(ctx) {
				rec := result.Record()
				first, _ := rec.Get("first")
				second, _ := rec.Get("second")
				a, aok := first.(string)
				b, bok := second.(string)
				if !aok || !bok {
					continue
				}
				pairs = append(pairs, extraction.InteractionPair{
					First:  strings.ToLower(a),
					Second: strings.ToLower(b),
				})
			}
			return pairs, result.Err()
		})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "query interaction pairs")
	}
	return records, nil
}

// Close releases the driver.
func (s *PairSource) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
