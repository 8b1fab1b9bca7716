package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/ragline/ragline/internal/model"
	"github.com/ragline/ragline/internal/pkg/dbutil"
	appErr "github.com/ragline/ragline/internal/pkg/errors"
)

type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, project *model.Project) error {
	data := map[string]interface{}{
		"id":          project.ID,
		"name":        project.Name,
		"description": project.Description,
		"ctime":       project.Ctime,
		"mtime":       project.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("projects", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ProjectRepo) Update(ctx context.Context, project *model.Project) error {
	where := map[string]interface{}{
		"id": project.ID,
	}
	update := map[string]interface{}{
		"name":        project.Name,
		"description": project.Description,
		"mtime":       project.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("projects", where, update)
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

func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	sqlStr := `
		SELECT id, name, description, ctime, mtime
		FROM projects
		WHERE id = ?
	`
	args := []interface{}{id}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var p model.Project
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Ctime, &p.Mtime); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) List(ctx context.Context) ([]model.Project, error) {
	sqlStr := `
		SELECT id, name, description, ctime, mtime
		FROM projects
		ORDER BY mtime DESC
	`
	rows, err := r.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Ctime, &p.Mtime); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	sqlStr := `DELETE FROM projects WHERE id = ?`
	args := []interface{}{id}
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
