package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"codegram-backend/internal/domain"

	"gorm.io/gorm"
)

// ========== ACCOUNT REPOSITORY ==========

type accountRepo struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) domain.AccountRepository {
	return &accountRepo{db}
}

func (r *accountRepo) Create(ctx context.Context, account *domain.Account) error {
	account.Email = strings.ToLower(account.Email)
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *accountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var account domain.Account
	err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) GetByUID(ctx context.Context, uid string) (*domain.Account, error) {
	var account domain.Account
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) UpdateLastLogin(ctx context.Context, uid string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("uid = ?", uid).
		Update("last_login_at", now).Error
}

// UpdatePasswordHash swaps the hash only while it still equals currentHash,
// so two resets racing on the same token cannot both win.
func (r *accountRepo) UpdatePasswordHash(ctx context.Context, uid, currentHash, newHash string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("uid = ? AND password_hash = ?", uid, currentHash).
		Update("password_hash", newHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (r *accountRepo) Delete(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).Where("uid = ?", uid).Delete(&domain.Account{}).Error
}
