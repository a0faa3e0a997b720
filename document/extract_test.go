package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexable(t *testing.T) {
	for _, ext := range []string{".csv", ".html", ".ipynb", ".json", ".md", ".rmd", ".txt", ".xml"} {
		assert.True(t, Indexable(ext), ext)
	}
	assert.True(t, Indexable(".MD"))
	assert.False(t, Indexable(".parquet"))
	assert.False(t, Indexable(".pdf"))
	assert.False(t, Indexable(""))
}

func TestExtractPlainText(t *testing.T) {
	text, err := ExtractText(".txt", []byte("plain contents"))
	require.NoError(t, err)
	assert.Equal(t, "plain contents", text)
}

func TestExtractRejectsInvalidUTF8(t *testing.T) {
	_, err := ExtractText(".txt", []byte{0xff, 0xfe, 0x00})
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestExtractNotebookCells(t *testing.T) {
	nb := `{
		"nbformat": 4,
		"cells": [
			{"cell_type": "markdown", "source": "# Title"},
			{"cell_type": "code", "source": ["import os\n", "print(1)"]},
			{"cell_type": "raw", "source": "ignored"}
		]
	}`
	text, err := ExtractText(".ipynb", []byte(nb))
	require.NoError(t, err)
	assert.Equal(t, "# Title\nimport os\nprint(1)", text)
}

func TestExtractNotebookInvalidJSON(t *testing.T) {
	_, err := ExtractText(".ipynb", []byte("{not a notebook"))
	assert.ErrorIs(t, err, ErrMalformedNotebook)
}

func TestExtractNotebookWrongVersion(t *testing.T) {
	_, err := ExtractText(".ipynb", []byte(`{"nbformat": 3, "cells": []}`))
	assert.ErrorIs(t, err, ErrMalformedNotebook)
}

func TestExtractNotebookEmptyCells(t *testing.T) {
	text, err := ExtractText(".ipynb", []byte(`{"nbformat": 4, "cells": []}`))
	require.NoError(t, err)
	assert.Equal(t, "", text)
}
