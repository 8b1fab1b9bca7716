package job

import (
	"context"

	"github.com/ragline/ragline/internal/service"
)

// IngestScanJob drains pending documents through the ingestion pipeline.
type IngestScanJob struct {
	ingest    *service.IngestService
	batchSize uint
}

func NewIngestScanJob(ingest *service.IngestService, batchSize uint) *IngestScanJob {
	return &IngestScanJob{ingest: ingest, batchSize: batchSize}
}

func (j *IngestScanJob) Name() string {
	return "ingest_scan"
}

func (j *IngestScanJob) Run(ctx context.Context) error {
	if j.ingest == nil {
		return nil
	}
	batchSize := j.batchSize
	if batchSize == 0 {
		batchSize = 4
	}
	_, err := j.ingest.ProcessPending(ctx, batchSize)
	return err
}
