package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"yihuitong/internal/domain"
)

// MigrateDB 迁移所有表结构，并在历史会议表为空时写入示例数据。
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}

	err := db.AutoMigrate(
		&domain.User{},
		&domain.MeetingRecord{},
		&domain.TranscriptLine{},
	)
	if err != nil {
		logrus.Errorf("Failed to auto-migrate tables: %v", err)
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}

	if err := seedSampleMeetings(db); err != nil {
		return fmt.Errorf("failed to seed sample meetings: %w", err)
	}

	logrus.Info("Database migration completed successfully")
	return nil
}

// seedSampleMeetings 写入示例历史会议，表中已有数据时跳过。
func seedSampleMeetings(db *gorm.DB) error {
	var count int64
	if err := db.Model(&domain.MeetingRecord{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logrus.WithField("existing", count).Debug("Meeting records present, skipping seed")
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, sample := range SampleMeetings() {
			record := sample.Record
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			lines := make([]domain.TranscriptLine, len(sample.Transcript))
			for i, l := range sample.Transcript {
				lines[i] = domain.TranscriptLine{MeetingID: record.ID, Seq: i + 1, Time: l.Time, Text: l.Text}
			}
			if len(lines) > 0 {
				if err := tx.Create(&lines).Error; err != nil {
					return err
				}
			}
		}
		logrus.WithField("count", len(SampleMeetings())).Info("Sample meeting records seeded")
		return nil
	})
}
