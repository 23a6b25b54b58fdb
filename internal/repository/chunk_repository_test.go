package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlquery-engine/internal/model"
)

func TestChunkRepositoryCreateBatch(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewChunkRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `chunks`").
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	chunks := []model.Chunk{
		{DocumentID: 7, ChunkIndex: 0, Text: "Skills: python"},
		{DocumentID: 7, ChunkIndex: 1, Text: "Experience: 5 years"},
	}
	for i := range chunks {
		chunks[i].SetEmbedding([]float32{0.5, 0.5})
	}

	require.NoError(t, repo.CreateBatch(chunks))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunkRepositoryCreateBatchEmpty(t *testing.T) {
	gdb, _ := newMockDB(t)
	repo := NewChunkRepository(gdb)
	assert.NoError(t, repo.CreateBatch(nil))
}

func TestChunkRepositoryListWithDocuments(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewChunkRepository(gdb)

	cols := []string{"text", "embedding", "filename", "doc_type"}
	mock.ExpectQuery("SELECT chunks.text AS text").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("Termination requires notice.", "[0.6,0.8]", "contract.pdf", "pdf"))

	rows, err := repo.ListWithDocuments()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "contract.pdf", rows[0].Filename)
	assert.Equal(t, []float32{0.6, 0.8}, rows[0].EmbeddingVector())
	assert.NoError(t, mock.ExpectationsWereMet())
}
