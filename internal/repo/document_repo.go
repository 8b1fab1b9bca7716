package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/ragline/ragline/internal/model"
	"github.com/ragline/ragline/internal/pkg/dbutil"
	appErr "github.com/ragline/ragline/internal/pkg/errors"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":          doc.ID,
		"project_id":  doc.ProjectID,
		"filename":    doc.Filename,
		"file_key":    doc.FileKey,
		"file_size":   doc.FileSize,
		"status":      doc.Status,
		"chunk_count": doc.ChunkCount,
		"token_count": doc.TokenCount,
		"error":       doc.Error,
		"ctime":       doc.Ctime,
		"mtime":       doc.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// UpdateStatus moves a document through its ingestion lifecycle. The chunk
// and token counts are only meaningful on the ready transition; error only
// on the failed one.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, id, status string, chunkCount, tokenCount int, errMsg string, mtime int64) error {
	where := map[string]interface{}{
		"id": id,
	}
	update := map[string]interface{}{
		"status":      status,
		"chunk_count": chunkCount,
		"token_count": tokenCount,
		"error":       errMsg,
		"mtime":       mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("documents", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, projectID, id string) (*model.Document, error) {
	sqlStr := `
		SELECT id, project_id, filename, file_key, file_size, status, chunk_count, token_count, error, ctime, mtime
		FROM documents
		WHERE id = ? AND project_id = ?
	`
	args := []interface{}{id, projectID}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	doc, err := scanDocument(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (r *DocumentRepo) ListByProject(ctx context.Context, projectID string, limit, offset uint) ([]model.Document, error) {
	sqlStr := `
		SELECT id, project_id, filename, file_key, file_size, status, chunk_count, token_count, error, ctime, mtime
		FROM documents
		WHERE project_id = ?
		ORDER BY mtime DESC
	`
	args := []interface{}{projectID}
	if limit > 0 {
		sqlStr += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) ListByStatus(ctx context.Context, status string, limit uint) ([]model.Document, error) {
	sqlStr := `
		SELECT id, project_id, filename, file_key, file_size, status, chunk_count, token_count, error, ctime, mtime
		FROM documents
		WHERE status = ?
		ORDER BY ctime
		LIMIT ?
	`
	args := []interface{}{status, limit}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepo) Delete(ctx context.Context, projectID, id string) error {
	sqlStr := `DELETE FROM documents WHERE id = ? AND project_id = ?`
	args := []interface{}{id, projectID}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var doc model.Document
	if err := row.Scan(&doc.ID, &doc.ProjectID, &doc.Filename, &doc.FileKey, &doc.FileSize,
		&doc.Status, &doc.ChunkCount, &doc.TokenCount, &doc.Error, &doc.Ctime, &doc.Mtime); err != nil {
		return nil, err
	}
	return &doc, nil
}
