package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/truststack/scorer/pkg/circuitbreaker"
	"github.com/truststack/scorer/pkg/logger"
	"github.com/truststack/scorer/pkg/retry"
)

// Client reads and maintains the domain reputation graph. Domain nodes
// carry a trust_score in [0,1] curated outside the scoring pipeline.
type Client struct {
	driver      neo4j.DriverWithContext
	database    string
	cb          *circuitbreaker.Breaker
	retryConfig retry.Config
}

func NewClient(uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		uri,
		neo4j.BasicAuth(username, password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to verify connectivity: %w", err)
	}

	cb := circuitbreaker.New("neo4j", circuitbreaker.Config{
		MaxRequests:      3,
		Timeout:          20 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   200 * time.Millisecond,
		MaxDelay:       3 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("Neo4j reputation client initialized", zap.String("uri", uri))

	return &Client{
		driver:      driver,
		database:    database,
		cb:          cb,
		retryConfig: retryConfig,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// DomainTrust returns the baseline trust score for a domain and whether
// the domain exists in the graph.
func (c *Client) DomainTrust(ctx context.Context, domain string) (float64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var trust float64
	var known bool

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
			defer session.Close(ctx)

			result, err := session.Run(ctx, `
				MATCH (d:Domain {name: $domain})
				RETURN d.trust_score
				LIMIT 1
			`, map[string]any{"domain": domain})
			if err != nil {
				return fmt.Errorf("failed to query domain trust: %w", err)
			}

			known = false
			if result.Next(ctx) {
				if value, ok := result.Record().Get("d.trust_score"); ok {
					if score, ok := value.(float64); ok {
						trust = score
						known = true
					}
				}
			}
			return result.Err()
		})
	})

	if err != nil {
		return 0, false, err
	}

	logger.Debug("Domain trust resolved",
		zap.String("domain", domain),
		zap.Bool("known", known),
		zap.Float64("trust", trust),
	)
	return trust, known, nil
}

// UpsertDomain records or updates a domain's trust baseline.
func (c *Client) UpsertDomain(ctx context.Context, domain string, trust float64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MERGE (d:Domain {name: $domain})
		SET d.trust_score = $trust,
		    d.updated_at = timestamp()
	`, map[string]any{"domain": domain, "trust": trust})
	if err != nil {
		return fmt.Errorf("failed to upsert domain: %w", err)
	}

	logger.Debug("Domain trust upserted", zap.String("domain", domain), zap.Float64("trust", trust))
	return nil
}
