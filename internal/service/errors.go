package service

import (
	"errors"
	"fmt"
)

var (
	// 校验错误
	ErrInvalidPage   = errors.New("page must be a positive integer")
	ErrInvalidQuery  = errors.New("query is too long")
	ErrInvalidRating = errors.New("rating must be an integer between 1 and 10")

	// 不存在
	ErrMovieNotFound = errors.New("movie not found")
	ErrUserNotFound  = errors.New("user not found")

	// 电影评分已提交，但用户台账写入失败
	ErrPartialFailure = errors.New("movie rating recorded but user ledger was not updated")
)

// PartialFailureError 电影聚合评分已提交、台账写入失败
type PartialFailureError struct {
	MovieID int
	UserID  int
	Cause   error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("movie %d rated but ledger of user %d not updated: %v", e.MovieID, e.UserID, e.Cause)
}

func (e *PartialFailureError) Unwrap() []error {
	return []error{ErrPartialFailure, e.Cause}
}
