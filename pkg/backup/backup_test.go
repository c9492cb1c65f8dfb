package backup_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dativebase/old/pkg/backup"
	"github.com/dativebase/old/pkg/domain"
)

func TestIdenticalDetectsNoOpUpdate(t *testing.T) {
	a := domain.Form{ID: 1, Transcription: "chien"}
	b := domain.Form{ID: 1, Transcription: "chien"}
	assert.True(t, backup.Identical(a, b))

	b.Transcription = "chat"
	assert.False(t, backup.Identical(a, b))
}

func TestNewFormBackupCarriesUUID(t *testing.T) {
	f := &domain.Form{ID: 1, UUID: "abc-123", Transcription: "chien"}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := backup.NewFormBackup(f, now)
	assert.Equal(t, "abc-123", b.UUID)
	assert.Equal(t, "chien", b.Form.Transcription)
	assert.Equal(t, now, b.BackupDatetime)
}

func TestBuildFormHistoryNilCurrentAfterDelete(t *testing.T) {
	backups := []domain.FormBackup{{UUID: "abc-123"}}
	h := backup.BuildFormHistory(nil, backups)
	assert.Nil(t, h.Form)
	assert.Len(t, h.PreviousVersions, 1)
}
