package docproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkResumeSections(t *testing.T) {
	content := "John Smith\n" +
		"Skills: python, sql, react\n" +
		"Experience: 5 years at Acme Corp\n" +
		"Education: BS Computer Science"

	chunks := Chunk(content, TypePDF)
	require.Len(t, chunks, 4)
	assert.Equal(t, "John Smith", chunks[0])
	assert.True(t, strings.HasPrefix(chunks[1], "Skills"))
	assert.True(t, strings.HasPrefix(chunks[2], "Experience"))
	assert.True(t, strings.HasPrefix(chunks[3], "Education"))
}

func TestChunkNumberedClauses(t *testing.T) {
	content := "Employment Contract\n" +
		"1. The employee agrees to a notice period of 30 days.\n" +
		"2. Compensation is reviewed annually.\n" +
		"3. Either party may terminate with cause."

	chunks := Chunk(content, TypeTxt)
	require.Len(t, chunks, 4)
	assert.Equal(t, "Employment Contract", chunks[0])
	assert.True(t, strings.HasPrefix(chunks[1], "1."))
	assert.True(t, strings.HasPrefix(chunks[3], "3."))
}

func TestChunkParagraphPacking(t *testing.T) {
	short := "A short opening paragraph."
	long := strings.Repeat("word ", 200) // well over the chunk budget

	chunks := Chunk(short+"\n\n"+long, TypeTxt)
	require.Len(t, chunks, 2)
	assert.Equal(t, short, chunks[0])

	// Small paragraphs pack together.
	chunks = Chunk("First paragraph.\n\nSecond paragraph.", TypeTxt)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "First paragraph.")
	assert.Contains(t, chunks[0], "Second paragraph.")
}

func TestChunkCSVPacksLines(t *testing.T) {
	content := "name, salary\nAlice, 100000\nBob, 90000"
	chunks := Chunk(content, TypeCSV)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "Alice, 100000")
}

func TestChunkEmpty(t *testing.T) {
	assert.Nil(t, Chunk("   \n  ", TypeTxt))
}
