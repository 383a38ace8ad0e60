package sqlite

import (
	"context"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// maxParams bounds the placeholders of one IN query.
const maxParams = 500

// VectorIndex stores chunks in the chunks table and scores them with a
// brute-force cosine scan.
type VectorIndex struct {
	store *Store
}

// Add inserts chunks in one transaction.
func (v *VectorIndex) Add(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunks (id, file_hash, filename, filepath, chunk_index, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", c.ID)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.Metadata.FileHash, c.Metadata.Filename,
			c.Metadata.Filepath, c.Metadata.ChunkIndex, c.Text, float32SliceToBytes(c.Embedding)); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// ExistingIDs returns the subset of ids already stored.
func (v *VectorIndex) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	for start := 0; start < len(ids); start += maxParams {
		part := ids[start:min(start+maxParams, len(ids))]

		args := make([]any, len(part))
		for i, id := range part {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(part)), ",")

		rows, err := v.store.db.QueryContext(ctx,
			"SELECT id FROM chunks WHERE id IN ("+placeholders+")", args...) //nolint:gosec // placeholders only
		if err != nil {
			return nil, fmt.Errorf("querying chunk ids: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning chunk id: %w", err)
			}
			found[id] = struct{}{}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterating chunk ids: %w", err)
		}
	}
	return found, nil
}

// Query scores every stored chunk and returns the n nearest.
func (v *VectorIndex) Query(ctx context.Context, embedding []float32, n int) ([]domain.SearchResult, error) {
	if n <= 0 {
		return []domain.SearchResult{}, nil
	}

	rows, err := v.store.db.QueryContext(ctx,
		"SELECT file_hash, filename, filepath, chunk_index, content, embedding FROM chunks")
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	results := []domain.SearchResult{}
	for rows.Next() {
		var (
			r    domain.SearchResult
			blob []byte
		)
		if err := rows.Scan(&r.Metadata.FileHash, &r.Metadata.Filename, &r.Metadata.Filepath,
			&r.Metadata.ChunkIndex, &r.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		r.Distance = domain.CosineDistance(embedding, bytesToFloat32Slice(blob))
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// Reset drops the chunks table and replays its migration.
func (v *VectorIndex) Reset(ctx context.Context) error {
	ddl, err := fs.ReadFile(migrations.FS, migrations.ChunksFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", migrations.ChunksFile, err)
	}
	if _, err := v.store.db.ExecContext(ctx, "DROP TABLE IF EXISTS chunks"); err != nil {
		return fmt.Errorf("dropping chunks: %w", err)
	}
	if _, err := v.store.db.ExecContext(ctx, string(ddl)); err != nil {
		return fmt.Errorf("recreating chunks: %w", err)
	}
	return nil
}

// DeleteByFileHash removes every chunk of one file.
func (v *VectorIndex) DeleteByFileHash(ctx context.Context, fileHash string) error {
	if fileHash == "" {
		return fmt.Errorf("%w: empty file hash", domain.ErrInvalidInput)
	}
	if _, err := v.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE file_hash = ?", fileHash); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// Count returns the number of stored chunks.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the connection.
func (v *VectorIndex) Close() error {
	return nil
}

func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
