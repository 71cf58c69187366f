package artifacts

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// DefaultSweepBatchSize bounds how many expired rows one batch processes.
const DefaultSweepBatchSize = 100

// SweepResult reports what one sweep pass removed.
type SweepResult struct {
	RowsDeleted    int64 `json:"rows_deleted"`
	FilesAttempted int   `json:"files_attempted"`
}

// Sweep removes all records whose retention window has passed, in batches.
// Blob deletes are best-effort; row deletes must succeed or the sweep aborts
// with the rows removed so far reported in the result.
func (s *Store) Sweep(ctx context.Context, batchSize int) (SweepResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultSweepBatchSize
	}

	var result SweepResult
	cutoff := s.now().UTC()

	for {
		batch, err := s.records.ExpiredBefore(ctx, cutoff, batchSize)
		if err != nil {
			return result, fmt.Errorf("list expired records: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		paths := make([]string, 0, len(batch))
		ids := make([]uuid.UUID, 0, len(batch))
		for _, rec := range batch {
			paths = append(paths, rec.FilePath)
			ids = append(ids, rec.ID)
		}

		result.FilesAttempted += len(paths)
		if err := s.blobs.Remove(ctx, paths); err != nil {
			s.logger.Warn().Err(err).Int("count", len(paths)).Msg("sweep blob delete failed, removing metadata anyway")
		}

		deleted, err := s.records.DeleteByIDs(ctx, ids)
		result.RowsDeleted += deleted
		sweeperRowsDeletedTotal.Add(float64(deleted))
		if err != nil {
			return result, fmt.Errorf("delete expired records: %w", err)
		}
	}

	if result.RowsDeleted > 0 {
		s.publish(ctx, SubjectSwept, map[string]any{
			"rows_deleted":    result.RowsDeleted,
			"files_attempted": result.FilesAttempted,
		})
	}

	s.logger.Info().
		Int64("rows_deleted", result.RowsDeleted).
		Int("files_attempted", result.FilesAttempted).
		Msg("sweep complete")
	return result, nil
}
