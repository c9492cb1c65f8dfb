package corpus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dativebase/old/pkg/artifacts"
	"github.com/dativebase/old/pkg/domain"
)

func TestWriteToFileTreebankWritesOneLinePerForm(t *testing.T) {
	e, mock, closeDB := newTestEngine(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM forms WHERE id IN").
		WillReturnRows(formRows(formEntry{1, "a", "chien"}, formEntry{2, "b", "chat"}))

	c := &domain.Corpus{ID: 7, FormIDs: []int64{1, 2}}
	files, err := e.WriteToFile(context.Background(), c, FormatTreebank)
	require.NoError(t, err)
	require.Len(t, files, 2)

	data, err := artifacts.ReadFile(e.layout.CorpusTreebankPath(7))
	require.NoError(t, err)
	assert.Contains(t, string(data), "(TOP-1 (S chien))")
	assert.Contains(t, string(data), "(TOP-2 (S chat))")

	assert.True(t, artifacts.Exists(e.layout.CorpusTreebankPath(7) + ".gz"))
}

func TestWriteToFileTranscriptionsOnly(t *testing.T) {
	e, mock, closeDB := newTestEngine(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM forms WHERE id IN").
		WillReturnRows(formRows(formEntry{1, "a", "chien"}))

	c := &domain.Corpus{ID: 3, FormIDs: []int64{1}}
	_, err := e.WriteToFile(context.Background(), c, FormatTranscriptionsOnly)
	require.NoError(t, err)

	data, err := artifacts.ReadFile(e.layout.CorpusTranscriptionsPath(3))
	require.NoError(t, err)
	assert.Equal(t, "chien\n", string(data))
}

func TestWriteToFileRejectsUnknownFormat(t *testing.T) {
	e, mock, closeDB := newTestEngine(t)
	defer closeDB()

	mock.ExpectQuery("SELECT (.+) FROM forms WHERE id IN").
		WillReturnRows(formRows(formEntry{1, "a", "chien"}))

	c := &domain.Corpus{ID: 3, FormIDs: []int64{1}}
	_, err := e.WriteToFile(context.Background(), c, Format("xml"))
	require.Error(t, err)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}
