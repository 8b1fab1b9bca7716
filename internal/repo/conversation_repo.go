package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/ragline/ragline/internal/model"
	"github.com/ragline/ragline/internal/pkg/dbutil"
	appErr "github.com/ragline/ragline/internal/pkg/errors"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) Create(ctx context.Context, conv *model.Conversation) error {
	data := map[string]interface{}{
		"id":            conv.ID,
		"project_id":    conv.ProjectID,
		"title":         conv.Title,
		"provider_name": conv.ProviderName,
		"model":         conv.Model,
		"temperature":   conv.Temperature,
		"ctime":         conv.Ctime,
		"mtime":         conv.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("conversations", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ConversationRepo) GetByID(ctx context.Context, projectID, id string) (*model.Conversation, error) {
	sqlStr := `
		SELECT id, project_id, title, provider_name, model, temperature, ctime, mtime
		FROM conversations
		WHERE id = ? AND project_id = ?
	`
	args := []interface{}{id, projectID}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var conv model.Conversation
	if err := row.Scan(&conv.ID, &conv.ProjectID, &conv.Title, &conv.ProviderName,
		&conv.Model, &conv.Temperature, &conv.Ctime, &conv.Mtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepo) ListByProject(ctx context.Context, projectID string, limit, offset uint) ([]model.Conversation, error) {
	sqlStr := `
		SELECT id, project_id, title, provider_name, model, temperature, ctime, mtime
		FROM conversations
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
	var convs []model.Conversation
	for rows.Next() {
		var conv model.Conversation
		if err := rows.Scan(&conv.ID, &conv.ProjectID, &conv.Title, &conv.ProviderName,
			&conv.Model, &conv.Temperature, &conv.Ctime, &conv.Mtime); err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *ConversationRepo) Touch(ctx context.Context, id string, title string, mtime int64) error {
	update := map[string]interface{}{
		"mtime": mtime,
	}
	if title != "" {
		update["title"] = title
	}
	sqlStr, args, err := builder.BuildUpdate("conversations", map[string]interface{}{"id": id}, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ConversationRepo) Delete(ctx context.Context, projectID, id string) error {
	sqlStr := `DELETE FROM conversations WHERE id = ? AND project_id = ?`
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
	dsql := `DELETE FROM messages WHERE conversation_id = ?`
	dargs := []interface{}{id}
	dsql, dargs = dbutil.Finalize(dsql, dargs)
	_, err = r.db.ExecContext(ctx, dsql, dargs...)
	return err
}

func (r *ConversationRepo) AppendMessage(ctx context.Context, msg *model.Message) error {
	data := map[string]interface{}{
		"id":               msg.ID,
		"conversation_id":  msg.ConversationID,
		"role":             msg.Role,
		"content":          msg.Content,
		"tokens_used":      msg.TokensUsed,
		"retrieved_chunks": msg.RetrievedChunks,
		"failed":           msg.Failed,
		"ctime":            msg.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("messages", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListMessages returns the conversation turns oldest first.
func (r *ConversationRepo) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	sqlStr := `
		SELECT id, conversation_id, role, content, tokens_used, retrieved_chunks, failed, ctime
		FROM messages
		WHERE conversation_id = ?
		ORDER BY ctime
	`
	args := []interface{}{conversationID}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content,
			&msg.TokensUsed, &msg.RetrievedChunks, &msg.Failed, &msg.Ctime); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
