package setup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"yihuitong/internal/domain"
)

func TestMigrateDB_SeedsOnce(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:setup_seed?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, MigrateDB(db))
	require.NoError(t, MigrateDB(db))

	var records, lines int64
	require.NoError(t, db.Model(&domain.MeetingRecord{}).Count(&records).Error)
	require.NoError(t, db.Model(&domain.TranscriptLine{}).Count(&lines).Error)

	assert.EqualValues(t, len(SampleMeetings()), records)
	expected := 0
	for _, s := range SampleMeetings() {
		expected += len(s.Transcript)
	}
	assert.EqualValues(t, expected, lines)
}

func TestMigrateDB_NilDB(t *testing.T) {
	assert.Error(t, MigrateDB(nil))
}
