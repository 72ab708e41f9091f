// Package filestore is the relational audio store: uploaded recordings,
// their ground truth captions, and saved transcription tracks.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/spectralab/spectral-server/internal/model/segment"
)

var ErrNotFound = errors.New("not found")

// File is a stored recording row.
type File struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name"`
	Data         []byte    `gorm:"column:data"`
	CreationTime time.Time `gorm:"column:creation_time"`
	GroundTruth  string    `gorm:"column:ground_truth"`
}

func (File) TableName() string { return "files" }

// FileTranscription groups the segment rows of one saved transcription
// track for a file.
type FileTranscription struct {
	ID     string `gorm:"column:id;primaryKey"`
	FileID string `gorm:"column:file"`
}

func (FileTranscription) TableName() string { return "file_transcription" }

// TranscriptionRow is one stored segment.
type TranscriptionRow struct {
	ID                  string  `gorm:"column:id;primaryKey"`
	FileTranscriptionID string  `gorm:"column:file_transcription"`
	Start               float64 `gorm:"column:start"`
	End                 float64 `gorm:"column:end"`
	Value               string  `gorm:"column:value"`
}

func (TranscriptionRow) TableName() string { return "transcription" }

// UserAPIKey is a per-user credential for a cloud transcription model.
type UserAPIKey struct {
	UserID string `gorm:"column:user_id;primaryKey"`
	Model  string `gorm:"column:model;primaryKey"`
	Key    string `gorm:"column:key"`
}

func (UserAPIKey) TableName() string { return "user_api_keys" }

type Store struct {
	db *gorm.DB
}

// Open connects to Postgres. The schema is owned by the companion web app;
// this service only reads and appends.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Fetch loads a recording by id.
func (s *Store) Fetch(ctx context.Context, id string) (File, error) {
	var file File
	err := s.db.WithContext(ctx).First(&file, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return File{}, fmt.Errorf("file %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return File{}, fmt.Errorf("fetch file %q: %w", id, err)
	}
	return file, nil
}

// Save inserts a new recording and returns its id.
func (s *Store) Save(ctx context.Context, name string, data []byte) (string, error) {
	file := File{
		ID:           uuid.NewString(),
		Name:         name,
		Data:         data,
		CreationTime: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&file).Error; err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}
	return file.ID, nil
}

// Transcriptions returns every saved transcription track for a file, each
// as its own segment list. The HTTP surface only writes tracks; this is the
// read side of that contract, kept for store tooling and future readers.
func (s *Store) Transcriptions(ctx context.Context, fileID string) ([][]segment.Segment, error) {
	var tracks []FileTranscription
	if err := s.db.WithContext(ctx).Find(&tracks, "file = ?", fileID).Error; err != nil {
		return nil, fmt.Errorf("list transcriptions for %q: %w", fileID, err)
	}

	res := make([][]segment.Segment, 0, len(tracks))
	for _, track := range tracks {
		var rows []TranscriptionRow
		if err := s.db.WithContext(ctx).
			Order("start").
			Find(&rows, "file_transcription = ?", track.ID).Error; err != nil {
			return nil, fmt.Errorf("load transcription %q: %w", track.ID, err)
		}

		res = append(res, lo.Map(rows, func(row TranscriptionRow, _ int) segment.Segment {
			return segment.New(row.Value, row.Start, row.End)
		}))
	}
	return res, nil
}

// StoreTranscription appends a new transcription track for a file.
func (s *Store) StoreTranscription(ctx context.Context, fileID string, segments []segment.Segment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		track := FileTranscription{ID: uuid.NewString(), FileID: fileID}
		if err := tx.Create(&track).Error; err != nil {
			return fmt.Errorf("create transcription track: %w", err)
		}

		rows := lo.Map(segments, func(s segment.Segment, _ int) TranscriptionRow {
			return TranscriptionRow{
				ID:                  uuid.NewString(),
				FileTranscriptionID: track.ID,
				Start:               s.Start,
				End:                 s.End,
				Value:               s.Value,
			}
		})
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("create transcription rows: %w", err)
		}
		return nil
	})
}

// APIKey returns the stored credential a user saved for a model, or empty
// when none exists. The transcription route still takes its key from the
// request path; this covers the stored-key side of the schema until the
// routes carry a user identity.
func (s *Store) APIKey(ctx context.Context, userID, model string) (string, error) {
	var key UserAPIKey
	err := s.db.WithContext(ctx).
		First(&key, "user_id = ? AND model = ?", userID, model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("fetch api key: %w", err)
	}
	return key.Key, nil
}
