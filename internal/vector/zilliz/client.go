package zilliz

import (
	"context"
	"fmt"
	"math"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/truststack/scorer/pkg/logger"
)

// Client holds the brand exemplar collection: embeddings of content known
// to represent the brand's own voice. The embedding-similarity detector
// scores new content against it.
type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
}

// Exemplar is one stored reference embedding.
type Exemplar struct {
	ID        string
	Brand     string
	Embedding []float32
}

func NewClient(endpoint, apiKey, collectionName string, vectorDim int) (*Client, error) {
	var c client.Client
	var err error
	if apiKey != "" {
		c, err = client.NewClient(context.Background(), client.Config{Address: endpoint, APIKey: apiKey})
	} else {
		c, err = client.NewGrpcClient(context.Background(), endpoint)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Vector client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
	}, nil
}

func (z *Client) Close() error {
	return z.client.Close()
}

func (z *Client) EnsureCollection(ctx context.Context) error {
	has, err := z.client.HasCollection(ctx, z.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: z.collectionName,
		Description:    "Brand exemplar embeddings",
		Fields: []*entity.Field{
			{
				Name:       "exemplar_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:       "brand",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "128"},
			},
			{
				Name:       "embedding",
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": fmt.Sprintf("%d", z.vectorDim)},
			},
		},
	}

	if err := z.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.L2, 128)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := z.client.CreateIndex(ctx, z.collectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := z.client.LoadCollection(ctx, z.collectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Exemplar collection created and loaded", zap.String("collection", z.collectionName))
	return nil
}

func (z *Client) InsertExemplars(ctx context.Context, exemplars []Exemplar) error {
	if len(exemplars) == 0 {
		return nil
	}

	ids := make([]string, len(exemplars))
	brands := make([]string, len(exemplars))
	embeddings := make([][]float32, len(exemplars))
	for i, e := range exemplars {
		ids[i] = e.ID
		brands[i] = e.Brand
		embeddings[i] = e.Embedding
	}

	_, err := z.client.Insert(
		ctx,
		z.collectionName,
		"",
		entity.NewColumnVarChar("exemplar_id", ids),
		entity.NewColumnVarChar("brand", brands),
		entity.NewColumnFloatVector("embedding", z.vectorDim, embeddings),
	)
	if err != nil {
		return fmt.Errorf("failed to insert exemplars: %w", err)
	}

	if err := z.client.Flush(ctx, z.collectionName, false); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Exemplars inserted", zap.Int("count", len(exemplars)))
	return nil
}

// BestMatch returns the similarity in [0,1] of the closest stored
// exemplar, or found=false when the collection is empty.
func (z *Client) BestMatch(ctx context.Context, vector []float32) (float64, bool, error) {
	sp, _ := entity.NewIndexIvfFlatSearchParam(16)

	searchResult, err := z.client.Search(
		ctx,
		z.collectionName,
		[]string{},
		"",
		[]string{"exemplar_id"},
		[]entity.Vector{entity.FloatVector(vector)},
		"embedding",
		entity.L2,
		1,
		sp,
	)
	if err != nil {
		return 0, false, fmt.Errorf("failed to search exemplars: %w", err)
	}

	for _, sr := range searchResult {
		if sr.ResultCount > 0 {
			similarity := distanceToSimilarity(float64(sr.Scores[0]))
			return similarity, true, nil
		}
	}
	return 0, false, nil
}

// distanceToSimilarity squashes an L2 distance onto (0,1], 1 meaning an
// exact match.
func distanceToSimilarity(distance float64) float64 {
	return math.Exp(-distance)
}
