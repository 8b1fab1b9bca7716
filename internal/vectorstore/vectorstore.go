package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// CollectionName derives the vector collection key for a project.
func CollectionName(projectID string) string {
	return "project_" + projectID
}

type Record struct {
	DocumentID string
	ChunkIndex int
	Content    string
	Metadata   map[string]interface{}
	Embedding  []float32
}

type QueryResult struct {
	DocumentID string
	ChunkIndex int
	Content    string
	Metadata   map[string]interface{}
	Distance   float64
}

type Stats struct {
	Collection string `json:"collection"`
	ChunkCount int64  `json:"chunk_count"`
	DocCount   int64  `json:"doc_count"`
}

type VectorStore struct {
	db *sql.DB
}

func New(db *sql.DB) *VectorStore {
	return &VectorStore{db: db}
}

func (s *VectorStore) Insert(ctx context.Context, collection string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	const query = `
		INSERT INTO vector_chunks (collection, document_id, chunk_index, content, metadata, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, rec := range records {
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshal chunk metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, collection, rec.DocumentID, rec.ChunkIndex,
			rec.Content, meta, pgvector.NewVector(rec.Embedding)); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Debug("inserted vector chunks",
		zap.String("collection", collection), zap.Int("count", len(records)))
	return nil
}

// Query returns the n nearest chunks in a collection by cosine distance,
// closest first.
func (s *VectorStore) Query(ctx context.Context, collection string, embedding []float32, n int) ([]*QueryResult, error) {
	if n <= 0 {
		return nil, nil
	}
	const query = `
		SELECT document_id, chunk_index, content, metadata, embedding <=> $2 AS distance
		FROM vector_chunks
		WHERE collection = $1
		ORDER BY distance
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, collection, pgvector.NewVector(embedding), n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []*QueryResult
	for rows.Next() {
		item := &QueryResult{}
		var rawMeta []byte
		if err := rows.Scan(&item.DocumentID, &item.ChunkIndex, &item.Content, &rawMeta, &item.Distance); err != nil {
			return nil, err
		}
		if len(rawMeta) > 0 {
			if err := json.Unmarshal(rawMeta, &item.Metadata); err != nil {
				return nil, fmt.Errorf("decode chunk metadata: %w", err)
			}
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

func (s *VectorStore) DeleteDocument(ctx context.Context, collection string, documentID string) (int64, error) {
	const query = `DELETE FROM vector_chunks WHERE collection = $1 AND document_id = $2`
	res, err := s.db.ExecContext(ctx, query, collection, documentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *VectorStore) DeleteCollection(ctx context.Context, collection string) (int64, error) {
	const query = `DELETE FROM vector_chunks WHERE collection = $1`
	res, err := s.db.ExecContext(ctx, query, collection)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *VectorStore) Stats(ctx context.Context, collection string) (*Stats, error) {
	const query = `
		SELECT COUNT(*), COUNT(DISTINCT document_id)
		FROM vector_chunks
		WHERE collection = $1
	`
	row := s.db.QueryRowContext(ctx, query, collection)
	st := &Stats{Collection: collection}
	if err := row.Scan(&st.ChunkCount, &st.DocCount); err != nil {
		return nil, err
	}
	return st, nil
}
