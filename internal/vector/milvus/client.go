// Package milvus backs the vector index contract with a Milvus
// collection.
package milvus

import (
	"context"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/docchat/backend/internal/vector"
	"github.com/docchat/backend/pkg/config"
)

const (
	fieldID         = "id"
	fieldEmbedding  = "embedding"
	fieldUserID     = "user_id"
	fieldFileID     = "file_id"
	fieldText       = "text"
	fieldChunkIndex = "chunk_index"
)

// filter keys arrive in wire form; translate to column names.
var filterColumns = map[string]string{
	vector.MetaUserID: fieldUserID,
	vector.MetaFileID: fieldFileID,
}

type Client struct {
	client     client.Client
	collection string
	dim        int
	logger     *zap.Logger
}

func NewClient(ctx context.Context, cfg config.MilvusConfig, logger *zap.Logger) (*Client, error) {
	mc, err := client.NewGrpcClient(ctx, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	c := &Client{
		client:     mc,
		collection: cfg.CollectionName,
		dim:        cfg.VectorDim,
		logger:     logger,
	}

	if err := c.ensureCollection(ctx); err != nil {
		mc.Close()
		return nil, err
	}

	logger.Info("Milvus vector index initialized",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("collection", cfg.CollectionName),
		zap.Int("dim", cfg.VectorDim),
	)
	return c, nil
}

func (c *Client) ensureCollection(ctx context.Context) error {
	exists, err := c.client.HasCollection(ctx, c.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if !exists {
		schema := entity.NewSchema().
			WithName(c.collection).
			WithField(entity.NewField().WithName(fieldID).WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(256).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(fieldEmbedding).WithDataType(entity.FieldTypeFloatVector).
				WithDim(int64(c.dim))).
			WithField(entity.NewField().WithName(fieldUserID).WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(256)).
			WithField(entity.NewField().WithName(fieldFileID).WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(256)).
			WithField(entity.NewField().WithName(fieldText).WithDataType(entity.FieldTypeVarChar).
				WithMaxLength(65535)).
			WithField(entity.NewField().WithName(fieldChunkIndex).WithDataType(entity.FieldTypeInt64))

		if err := c.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		index, err := entity.NewIndexIvfFlat(entity.COSINE, 128)
		if err != nil {
			return fmt.Errorf("failed to build index definition: %w", err)
		}
		if err := c.client.CreateIndex(ctx, c.collection, fieldEmbedding, index, false); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := c.client.LoadCollection(ctx, c.collection, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func buildExpr(filter map[string]string) (string, error) {
	expr := ""
	for key, value := range filter {
		column, ok := filterColumns[key]
		if !ok {
			return "", fmt.Errorf("unsupported filter key: %s", key)
		}
		clause := fmt.Sprintf(`%s == "%s"`, column, value)
		if expr == "" {
			expr = clause
		} else {
			expr = expr + " && " + clause
		}
	}
	return expr, nil
}

// Upsert deletes any existing rows with the same ids, then inserts.
func (c *Client) Upsert(ctx context.Context, vectors []vector.StoredVector) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(vectors))
	embeddings := make([][]float32, 0, len(vectors))
	userIDs := make([]string, 0, len(vectors))
	fileIDs := make([]string, 0, len(vectors))
	texts := make([]string, 0, len(vectors))
	chunkIndexes := make([]int64, 0, len(vectors))

	for _, v := range vectors {
		idx, err := strconv.ParseInt(v.Metadata[vector.MetaChunkIndex], 10, 64)
		if err != nil {
			idx = 0
		}
		ids = append(ids, v.ID)
		embeddings = append(embeddings, v.Values)
		userIDs = append(userIDs, v.Metadata[vector.MetaUserID])
		fileIDs = append(fileIDs, v.Metadata[vector.MetaFileID])
		texts = append(texts, v.Metadata[vector.MetaText])
		chunkIndexes = append(chunkIndexes, idx)
	}

	if err := c.client.DeleteByPks(ctx, c.collection, "", entity.NewColumnVarChar(fieldID, ids)); err != nil {
		return 0, fmt.Errorf("failed to clear existing vectors: %w", err)
	}

	_, err := c.client.Insert(ctx, c.collection, "",
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnFloatVector(fieldEmbedding, c.dim, embeddings),
		entity.NewColumnVarChar(fieldUserID, userIDs),
		entity.NewColumnVarChar(fieldFileID, fileIDs),
		entity.NewColumnVarChar(fieldText, texts),
		entity.NewColumnInt64(fieldChunkIndex, chunkIndexes),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert vectors: %w", err)
	}

	if err := c.client.Flush(ctx, c.collection, false); err != nil {
		return 0, fmt.Errorf("failed to flush collection: %w", err)
	}
	return len(vectors), nil
}

func (c *Client) Search(ctx context.Context, query []float32, topK int, filter map[string]string) ([]vector.Match, error) {
	expr, err := buildExpr(filter)
	if err != nil {
		return nil, err
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(16)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	results, err := c.client.Search(ctx, c.collection, nil, expr,
		[]string{fieldID, fieldUserID, fieldFileID, fieldText, fieldChunkIndex},
		[]entity.Vector{entity.FloatVector(query)},
		fieldEmbedding, entity.COSINE, topK, sp)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	matches := make([]vector.Match, 0)
	for _, result := range results {
		columns := make(map[string]*entity.ColumnVarChar)
		var chunkIdx *entity.ColumnInt64
		for _, field := range result.Fields {
			switch col := field.(type) {
			case *entity.ColumnVarChar:
				columns[col.Name()] = col
			case *entity.ColumnInt64:
				chunkIdx = col
			}
		}

		for i := 0; i < result.ResultCount; i++ {
			m := vector.Match{
				Score:    float64(result.Scores[i]),
				Metadata: make(map[string]string),
			}
			if col, ok := columns[fieldID]; ok {
				m.ID, _ = col.ValueByIdx(i)
			}
			if col, ok := columns[fieldUserID]; ok {
				m.Metadata[vector.MetaUserID], _ = col.ValueByIdx(i)
			}
			if col, ok := columns[fieldFileID]; ok {
				m.Metadata[vector.MetaFileID], _ = col.ValueByIdx(i)
			}
			if col, ok := columns[fieldText]; ok {
				m.Metadata[vector.MetaText], _ = col.ValueByIdx(i)
			}
			if chunkIdx != nil {
				v, _ := chunkIdx.ValueByIdx(i)
				m.Metadata[vector.MetaChunkIndex] = strconv.FormatInt(v, 10)
			}
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func (c *Client) ListIDs(ctx context.Context, filter map[string]string) ([]string, error) {
	expr, err := buildExpr(filter)
	if err != nil {
		return nil, err
	}

	results, err := c.client.Query(ctx, c.collection, nil, expr, []string{fieldID})
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	ids := make([]string, 0)
	for _, field := range results {
		col, ok := field.(*entity.ColumnVarChar)
		if !ok || col.Name() != fieldID {
			continue
		}
		for i := 0; i < col.Len(); i++ {
			id, err := col.ValueByIdx(i)
			if err != nil {
				return nil, fmt.Errorf("failed to read id column: %w", err)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (c *Client) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	if err := c.client.DeleteByPks(ctx, c.collection, "", entity.NewColumnVarChar(fieldID, ids)); err != nil {
		return 0, fmt.Errorf("failed to delete vectors: %w", err)
	}

	c.logger.Debug("Deleted vectors from collection",
		zap.String("collection", c.collection), zap.Int("count", len(ids)))
	return len(ids), nil
}
