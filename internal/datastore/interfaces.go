// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aveslab/perchview/internal/conf"
	"github.com/aveslab/perchview/internal/detection"
)

// Record is one persisted detection row.
type Record struct {
	ID         uint   `gorm:"column:id;primaryKey;autoIncrement"`
	RunID      string `gorm:"index"`
	Folder     string `gorm:"index"`
	FilePath   string
	Species    string `gorm:"index"`
	Confidence float64
	StartTime  float64
	EndTime    float64
	CreatedAt  time.Time
}

// SpeciesCount is the result row of the per-species count query.
type SpeciesCount struct {
	Species string
	Count   int
}

// Interface abstracts the underlying database implementation.
type Interface interface {
	Open() error
	Close() error
	SaveRun(runID, folder string, rs *detection.ResultSet) error
	GetRun(runID string) ([]Record, error)
	GetLastDetections(numDetections int) ([]Record, error)
	SpeciesCounts() ([]SpeciesCount, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New returns a store matching the output configuration, or nil when no
// database sink is enabled.
func New(settings *conf.Settings) Interface {
	if settings.Output.SQLite.Enabled {
		return &SQLiteStore{Settings: settings}
	}
	return nil
}

// SaveRun stores all detections of one analysis run in a single transaction.
func (ds *DataStore) SaveRun(runID, folder string, rs *detection.ResultSet) error {
	if ds.DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	detections := rs.Detections()
	records := make([]Record, 0, len(detections))
	now := time.Now()
	for i := range detections {
		d := &detections[i]
		records = append(records, Record{
			RunID:      runID,
			Folder:     folder,
			FilePath:   d.FilePath,
			Species:    d.Species,
			Confidence: d.Confidence,
			StartTime:  d.StartTime,
			EndTime:    d.EndTime,
			CreatedAt:  now,
		})
	}
	if len(records) == 0 {
		return nil
	}

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("saving detections: %w", err)
		}
		return nil
	})
}

// GetRun returns the detections stored for one run in insertion order.
func (ds *DataStore) GetRun(runID string) ([]Record, error) {
	var records []Record
	if err := ds.DB.Where("run_id = ?", runID).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("querying run %s: %w", runID, err)
	}
	return records, nil
}

// GetLastDetections returns the most recently stored detections.
func (ds *DataStore) GetLastDetections(numDetections int) ([]Record, error) {
	var records []Record
	if err := ds.DB.Order("id desc").Limit(numDetections).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("querying last detections: %w", err)
	}
	return records, nil
}

// SpeciesCounts returns detection counts per species, highest first.
func (ds *DataStore) SpeciesCounts() ([]SpeciesCount, error) {
	var counts []SpeciesCount
	err := ds.DB.Model(&Record{}).
		Select("species, count(*) as count").
		Group("species").
		Order("count desc").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("querying species counts: %w", err)
	}
	return counts, nil
}

// Close closes the underlying database connection.
func (ds *DataStore) Close() error {
	if ds.DB == nil {
		return nil
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// performAutoMigration runs gorm automigration for the Record schema.
func performAutoMigration(db *gorm.DB, debug bool, dbType, path string) error {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}
	if debug {
		fmt.Printf("%s database connection initialized: %s\n", dbType, path)
	}
	return nil
}
