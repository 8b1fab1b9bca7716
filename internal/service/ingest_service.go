package service

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ragline/ragline/internal/ai"
	"github.com/ragline/ragline/internal/extract"
	"github.com/ragline/ragline/internal/filestore"
	"github.com/ragline/ragline/internal/model"
	appErr "github.com/ragline/ragline/internal/pkg/errors"
	"github.com/ragline/ragline/internal/rag"
	"github.com/ragline/ragline/internal/repo"
	"github.com/ragline/ragline/internal/vectorstore"
)

const embedTaskDocument = "RETRIEVAL_DOCUMENT"

// IngestService owns the document lifecycle: upload to the file store,
// extract, chunk, embed and index into the vector store.
type IngestService struct {
	projects  *repo.ProjectRepo
	documents *repo.DocumentRepo
	store     filestore.Store
	embedder  ai.IEmbedder
	vectors   *vectorstore.VectorStore
	chunker   *rag.Chunker
}

func NewIngestService(projects *repo.ProjectRepo, documents *repo.DocumentRepo,
	store filestore.Store, embedder ai.IEmbedder, vectors *vectorstore.VectorStore) *IngestService {
	return &IngestService{
		projects:  projects,
		documents: documents,
		store:     store,
		embedder:  embedder,
		vectors:   vectors,
		chunker:   rag.NewChunker(),
	}
}

// Upload stores the raw file and records a pending document. Chunking and
// embedding happen asynchronously in ProcessPending.
func (s *IngestService) Upload(ctx context.Context, projectID, filename string, r filestore.ReadSeekCloser, size int64) (*model.Document, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." {
		return nil, appErr.ErrInvalid
	}
	if size > extract.MaxFileSize {
		return nil, appErr.ErrInvalid
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	now := time.Now().UnixMilli()
	doc := &model.Document{
		ID:        newID(),
		ProjectID: projectID,
		Filename:  filename,
		FileSize:  size,
		Status:    model.DocumentStatusPending,
		Ctime:     now,
		Mtime:     now,
	}
	doc.FileKey = doc.ID + filepath.Ext(filename)
	if err := s.store.Save(ctx, doc.FileKey, r, size); err != nil {
		return nil, err
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("document uploaded",
		zap.String("project_id", projectID),
		zap.String("document_id", doc.ID),
		zap.String("filename", filename),
		zap.Int64("size", size))
	return doc, nil
}

// ProcessPending picks up at most batchSize pending documents and runs them
// through the ingestion pipeline. Failures mark the document failed and do
// not stop the batch.
func (s *IngestService) ProcessPending(ctx context.Context, batchSize uint) (int, error) {
	docs, err := s.documents.ListByStatus(ctx, model.DocumentStatusPending, batchSize)
	if err != nil {
		return 0, err
	}
	processed := 0
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		if err := s.processOne(ctx, &docs[i]); err != nil {
			logutil.GetLogger(ctx).Error("document ingestion failed",
				zap.String("document_id", docs[i].ID), zap.Error(err))
			continue
		}
		processed++
	}
	return processed, nil
}

func (s *IngestService) processOne(ctx context.Context, doc *model.Document) error {
	logger := logutil.GetLogger(ctx).With(
		zap.String("project_id", doc.ProjectID),
		zap.String("document_id", doc.ID),
		zap.String("filename", doc.Filename),
	)
	if err := s.documents.UpdateStatus(ctx, doc.ID, model.DocumentStatusProcessing, 0, 0, "", time.Now().UnixMilli()); err != nil {
		return err
	}
	markFailed := func(cause error) error {
		if err := s.documents.UpdateStatus(ctx, doc.ID, model.DocumentStatusFailed, 0, 0, cause.Error(), time.Now().UnixMilli()); err != nil {
			logger.Error("failed to mark document failed", zap.Error(err))
		}
		return cause
	}

	file, err := s.store.Open(ctx, doc.FileKey)
	if err != nil {
		return markFailed(err)
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return markFailed(err)
	}

	text, err := extract.Extract(ctx, doc.Filename, data)
	if err != nil {
		return markFailed(err)
	}

	chunks := s.chunker.Chunk(ctx, text, map[string]interface{}{
		"source":      doc.Filename,
		"filename":    doc.Filename,
		"document_id": doc.ID,
		"project_id":  doc.ProjectID,
	})
	if len(chunks) == 0 {
		logger.Warn("document produced no chunks")
		return s.documents.UpdateStatus(ctx, doc.ID, model.DocumentStatusReady, 0, 0, "", time.Now().UnixMilli())
	}

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts, embedTaskDocument)
	if err != nil {
		return markFailed(err)
	}
	if len(embeddings) != len(chunks) {
		return markFailed(appErr.ErrInternal)
	}

	records := make([]vectorstore.Record, 0, len(chunks))
	totalTokens := 0
	for i, chunk := range chunks {
		totalTokens += chunk.TokenCount
		records = append(records, vectorstore.Record{
			DocumentID: doc.ID,
			ChunkIndex: i,
			Content:    chunk.Text,
			Metadata:   chunk.Metadata,
			Embedding:  embeddings[i],
		})
	}
	collection := vectorstore.CollectionName(doc.ProjectID)
	// Replace any chunks from a previous ingestion of this document.
	if _, err := s.vectors.DeleteDocument(ctx, collection, doc.ID); err != nil {
		return markFailed(err)
	}
	if err := s.vectors.Insert(ctx, collection, records); err != nil {
		return markFailed(err)
	}

	if err := s.documents.UpdateStatus(ctx, doc.ID, model.DocumentStatusReady,
		len(chunks), totalTokens, "", time.Now().UnixMilli()); err != nil {
		return err
	}
	logger.Info("document ingested",
		zap.Int("chunks", len(chunks)),
		zap.Int("tokens", totalTokens))
	return nil
}

func (s *IngestService) Get(ctx context.Context, projectID, docID string) (*model.Document, error) {
	return s.documents.GetByID(ctx, projectID, docID)
}

func (s *IngestService) List(ctx context.Context, projectID string, limit, offset uint) ([]model.Document, error) {
	return s.documents.ListByProject(ctx, projectID, limit, offset)
}

func (s *IngestService) Delete(ctx context.Context, projectID, docID string) error {
	doc, err := s.documents.GetByID(ctx, projectID, docID)
	if err != nil {
		return err
	}
	removed, err := s.vectors.DeleteDocument(ctx, vectorstore.CollectionName(projectID), docID)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, projectID, docID); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("document deleted",
		zap.String("document_id", docID),
		zap.String("filename", doc.Filename),
		zap.Int64("vector_chunks", removed))
	return nil
}
