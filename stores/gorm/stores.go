//go:build !wasm
// +build !wasm

// Package gorm provides a GORM-backed AccountStore for relational
// databases. The email uniqueness constraint lives in the schema, so a
// lost check-then-act race on Create surfaces as ErrDuplicateEmail.
package gorm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/panyam/gatekey"
)

// AccountModel is the persisted shape of a gatekey.Account.
type AccountModel struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"size:255"`
	AuthProvider string `gorm:"size:32;not null;default:local"`
	ProviderID   string `gorm:"size:255;index"`
	IsActive     bool
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (AccountModel) TableName() string { return "accounts" }

// AutoMigrate runs database migrations for the accounts table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&AccountModel{})
}

func toAccount(m *AccountModel) *gatekey.Account {
	return &gatekey.Account{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		AuthProvider: m.AuthProvider,
		ProviderID:   m.ProviderID,
		IsActive:     m.IsActive,
		IsVerified:   m.IsVerified,
		CreatedAt:    m.CreatedAt,
	}
}

func toModel(a *gatekey.Account) *AccountModel {
	return &AccountModel{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		AuthProvider: a.AuthProvider,
		ProviderID:   a.ProviderID,
		IsActive:     a.IsActive,
		IsVerified:   a.IsVerified,
		CreatedAt:    a.CreatedAt,
	}
}

// AccountStore implements gatekey.AccountStore using GORM.
type AccountStore struct {
	db *gorm.DB
}

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*gatekey.Account, error) {
	var model AccountModel
	err := s.db.WithContext(ctx).First(&model, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toAccount(&model), nil
}

func (s *AccountStore) Create(ctx context.Context, account *gatekey.Account) (*gatekey.Account, error) {
	model := toModel(account)
	model.ID = 0
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, gatekey.ErrDuplicateEmail
		}
		return nil, err
	}
	return toAccount(model), nil
}

func (s *AccountStore) Save(ctx context.Context, account *gatekey.Account) (*gatekey.Account, error) {
	model := toModel(account)
	if err := s.db.WithContext(ctx).Save(model).Error; err != nil {
		return nil, err
	}
	return toAccount(model), nil
}

func (s *AccountStore) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&AccountModel{}, id).Error
}

func (s *AccountStore) ListAll(ctx context.Context) ([]*gatekey.Account, error) {
	var models []AccountModel
	if err := s.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*gatekey.Account, len(models))
	for i := range models {
		out[i] = toAccount(&models[i])
	}
	return out, nil
}
