package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// LobbyRecord is the durable lobby row; the live session state lives in
// the snapshot cache, not here.
type LobbyRecord struct {
	ID   string `gorm:"primaryKey"`
	Code string
	Name string
}

func (LobbyRecord) TableName() string { return "lobbies" }

type PlayerRecord struct {
	ID      string `gorm:"primaryKey"`
	Name    string
	LobbyID *string
}

func (PlayerRecord) TableName() string { return "players" }

// Catalog rows, read-only from the engine's point of view.
type Category struct {
	ID   int `gorm:"primaryKey"`
	Name string
}

type Topic struct {
	ID         int `gorm:"primaryKey"`
	Name       string
	CategoryID int
}

type Item struct {
	ID      int `gorm:"primaryKey"`
	Name    string
	TopicID int
}

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func Open(dsn string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

func (s *Store) GetLobby(ctx context.Context, id string) (*LobbyRecord, error) {
	var rec LobbyRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("lobby %s: %w", id, err)
	}
	return &rec, nil
}

func (s *Store) CreateLobby(ctx context.Context, rec *LobbyRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create lobby: %w", err)
	}
	return nil
}

// ClearPlayerLobby resets a player's lobby assignment when they leave.
func (s *Store) ClearPlayerLobby(ctx context.Context, playerID string) error {
	err := s.db.WithContext(ctx).
		Model(&PlayerRecord{}).
		Where("id = ?", playerID).
		Update("lobby_id", nil).Error
	if err != nil {
		return fmt.Errorf("clear lobby assignment for player %s: %w", playerID, err)
	}
	return nil
}

// TopicItems lists the catalog items of one topic; used to seed a freshly
// created lobby's item board.
func (s *Store) TopicItems(ctx context.Context, topicID int) ([]Item, error) {
	var items []Item
	if err := s.db.WithContext(ctx).Where("topic_id = ?", topicID).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("items for topic %d: %w", topicID, err)
	}
	return items, nil
}

// CategoryTopics lists the topics under one category.
func (s *Store) CategoryTopics(ctx context.Context, categoryID int) ([]Topic, error) {
	var topics []Topic
	if err := s.db.WithContext(ctx).Where("category_id = ?", categoryID).Order("id").Find(&topics).Error; err != nil {
		return nil, fmt.Errorf("topics for category %d: %w", categoryID, err)
	}
	return topics, nil
}
