package repository

import (
	"context"

	"gorm.io/gorm"
)

// GormStore is a GORM implementation of Store
type GormStore struct {
	db *gorm.DB
}

// NewStore creates a new Store backed by db
func NewStore(db *gorm.DB) Store {
	return &GormStore{db: db}
}

func (s *GormStore) Tasks() TaskRepository { return NewTaskRepository(s.db) }
func (s *GormStore) Progress() ProgressRepository { return NewProgressRepository(s.db) }
func (s *GormStore) Organizations() OrganizationRepository { return NewOrganizationRepository(s.db) }
func (s *GormStore) Users() UserRepository { return NewUserRepository(s.db) }

// Transaction runs fn inside a database transaction
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
