package service

import (
	"context"
	"fmt"

	"github.com/user/moovie-catalog/internal/logging"
	"github.com/user/moovie-catalog/internal/metrics"
	"github.com/user/moovie-catalog/internal/repository"
	"github.com/user/moovie-catalog/internal/validation"
)

// RatingSubmission 一次评分提交
type RatingSubmission struct {
	MovieID int
	UserID  int
	Rating  int `validate:"min=1,max=10"`
}

// RatingOutcome 提交后的电影聚合状态
type RatingOutcome struct {
	MovieID       int     `json:"movie_id"`
	Rating        float64 `json:"rating"`
	VoteCount     int     `json:"vote_count"`
	UserRating    int     `json:"user_rating"`
	LedgerUpdated bool    `json:"ledger_updated"`
}

type cacheInvalidator interface {
	Invalidate()
}

// RatingService 评分聚合
type RatingService struct {
	users  *repository.UserRepository
	movies *repository.MovieRepository
	ledger *repository.RatingLedgerRepository
	cache  cacheInvalidator
}

// NewRatingService cache 可以为 nil
func NewRatingService(
	users *repository.UserRepository,
	movies *repository.MovieRepository,
	ledger *repository.RatingLedgerRepository,
	cache cacheInvalidator,
) *RatingService {
	return &RatingService{
		users:  users,
		movies: movies,
		ledger: ledger,
		cache:  cache,
	}
}

// Submit 提交评分
// 1. 校验评分范围，不合法时不做任何写入
// 2. 确认用户存在
// 3. 单条 UPDATE 原子累加电影均分与票数
// 4. 写入用户台账，失败时返回 *PartialFailureError，outcome 仍携带已提交的电影状态
func (s *RatingService) Submit(ctx context.Context, sub RatingSubmission) (*RatingOutcome, error) {
	if err := validation.Struct(sub); err != nil {
		metrics.RatingSubmissions.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidRating, err)
	}

	exists, err := s.users.Exists(ctx, sub.UserID)
	if err != nil {
		metrics.RatingSubmissions.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load user %d: %w", sub.UserID, err)
	}
	if !exists {
		metrics.RatingSubmissions.WithLabelValues("user_not_found").Inc()
		return nil, ErrUserNotFound
	}

	movie, err := s.movies.ApplyRating(ctx, sub.MovieID, sub.Rating)
	if err != nil {
		metrics.RatingSubmissions.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("apply rating to movie %d: %w", sub.MovieID, err)
	}
	if movie == nil {
		metrics.RatingSubmissions.WithLabelValues("movie_not_found").Inc()
		return nil, ErrMovieNotFound
	}

	outcome := &RatingOutcome{
		MovieID:    movie.ID,
		Rating:     movie.Rating,
		VoteCount:  movie.VoteCount,
		UserRating: sub.Rating,
	}
	if s.cache != nil {
		s.cache.Invalidate()
	}

	if err := s.ledger.Upsert(ctx, sub.UserID, sub.MovieID, sub.Rating); err != nil {
		metrics.RatingSubmissions.WithLabelValues("partial").Inc()
		logging.Error().Err(err).
			Int("movie_id", sub.MovieID).
			Int("user_id", sub.UserID).
			Msg("[RatingService] 电影评分已提交，用户台账写入失败")
		return outcome, &PartialFailureError{MovieID: sub.MovieID, UserID: sub.UserID, Cause: err}
	}

	outcome.LedgerUpdated = true
	metrics.RatingSubmissions.WithLabelValues("ok").Inc()
	logging.Debug().
		Int("movie_id", movie.ID).
		Float64("rating", movie.Rating).
		Int("vote_count", movie.VoteCount).
		Msg("[RatingService] 评分已提交")
	return outcome, nil
}
