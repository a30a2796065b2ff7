package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/moovie-catalog/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RatingLedgerRepository 用户评分台账
// 每个 (用户, 电影) 只保留最后一次评分
type RatingLedgerRepository struct {
	db *gorm.DB
}

func NewRatingLedgerRepository(db *gorm.DB) *RatingLedgerRepository {
	return &RatingLedgerRepository{db: db}
}

// Upsert 写入或覆盖评分，liked 字段不会被覆盖
func (r *RatingLedgerRepository) Upsert(ctx context.Context, userID, movieID, rating int) error {
	now := time.Now()
	entry := &model.RatingEntry{
		UserID:    userID,
		MovieID:   movieID,
		Rating:    &rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "updated_at"}),
	}).Create(entry).Error
}

// FindRating 查询用户对电影的评分，未评分时返回 0
func (r *RatingLedgerRepository) FindRating(ctx context.Context, userID, movieID int) (int, error) {
	var entry model.RatingEntry
	err := r.db.WithContext(ctx).Where("user_id = ? AND movie_id = ?", userID, movieID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return entry.RatingValue(), nil
}

// ListByUser 获取用户全部评分，最近更新的在前
func (r *RatingLedgerRepository) ListByUser(ctx context.Context, userID int) ([]model.RatingEntry, error) {
	entries := []model.RatingEntry{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Order("movie_id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *RatingLedgerRepository) CountByUser(ctx context.Context, userID int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.RatingEntry{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
