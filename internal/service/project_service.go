package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/model"
	appErr "github.com/ragline/ragline/internal/pkg/errors"
	"github.com/ragline/ragline/internal/repo"
	"github.com/ragline/ragline/internal/vectorstore"
)

type ProjectService struct {
	projects      *repo.ProjectRepo
	documents     *repo.DocumentRepo
	conversations *repo.ConversationRepo
	vectors       *vectorstore.VectorStore
}

func NewProjectService(projects *repo.ProjectRepo, documents *repo.DocumentRepo,
	conversations *repo.ConversationRepo, vectors *vectorstore.VectorStore) *ProjectService {
	return &ProjectService{
		projects:      projects,
		documents:     documents,
		conversations: conversations,
		vectors:       vectors,
	}
}

func (s *ProjectService) Create(ctx context.Context, name, description string) (*model.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErr.ErrInvalid
	}
	now := time.Now().UnixMilli()
	project := &model.Project{
		ID:          newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("project created",
		zap.String("project_id", project.ID), zap.String("name", project.Name))
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*model.Project, error) {
	return s.projects.GetByID(ctx, id)
}

func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	return s.projects.List(ctx)
}

func (s *ProjectService) Update(ctx context.Context, id, name, description string) (*model.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name != "" {
		project.Name = name
	}
	if description = strings.TrimSpace(description); description != "" {
		project.Description = description
	}
	project.Mtime = time.Now().UnixMilli()
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes the project together with its documents, conversations
// and vector collection.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	logger := logutil.GetLogger(ctx).With(zap.String("project_id", id))
	if _, err := s.projects.GetByID(ctx, id); err != nil {
		return err
	}
	docs, err := s.documents.ListByProject(ctx, id, 0, 0)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if err := s.documents.Delete(ctx, id, doc.ID); err != nil && !appErr.IsNotFound(err) {
			return err
		}
	}
	convs, err := s.conversations.ListByProject(ctx, id, 0, 0)
	if err != nil {
		return err
	}
	for _, conv := range convs {
		if err := s.conversations.Delete(ctx, id, conv.ID); err != nil && !appErr.IsNotFound(err) {
			return err
		}
	}
	removed, err := s.vectors.DeleteCollection(ctx, vectorstore.CollectionName(id))
	if err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("project deleted",
		zap.Int("documents", len(docs)),
		zap.Int("conversations", len(convs)),
		zap.Int64("vector_chunks", removed))
	return nil
}

func (s *ProjectService) Stats(ctx context.Context, id string) (*vectorstore.Stats, error) {
	if _, err := s.projects.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.vectors.Stats(ctx, vectorstore.CollectionName(id))
}
