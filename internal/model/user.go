package model

import (
	"time"
)

// DefaultAvatar 新用户默认头像
const DefaultAvatar = "https://cdn.pixabay.com/photo/2015/10/05/22/37/blank-profile-picture-973460_640.png"

// User 用户模型
type User struct {
	ID           int           `json:"id" db:"id"`
	Username     string        `json:"username" db:"username" gorm:"not null"`
	Email        string        `json:"email" db:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string        `json:"-" db:"password_hash" gorm:"not null"`
	Firstname    string        `json:"firstname,omitempty" db:"firstname"`
	Lastname     string        `json:"lastname,omitempty" db:"lastname"`
	Country      string        `json:"country,omitempty" db:"country"`
	State        string        `json:"state,omitempty" db:"state"`
	Avatar       string        `json:"avatar" db:"avatar"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
	MovieList    []RatingEntry `json:"movieList" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// SessionUser 专门用于 Session 存储的用户信息结构
type SessionUser struct {
	ID       int
	Email    string
	Username string
}

// RatingEntry 用户评分台账条目，每个 (用户, 电影) 仅保留一条，重复评分覆盖旧值
type RatingEntry struct {
	ID        int       `json:"-" db:"id"`
	UserID    int       `json:"-" db:"user_id" gorm:"not null;uniqueIndex:idx_user_movie_rating"`
	MovieID   int       `json:"movie_id" db:"movie_id" gorm:"not null;uniqueIndex:idx_user_movie_rating"`
	Rating    *int      `json:"rating" db:"rating" gorm:"check:rating >= 1 AND rating <= 10"`
	Liked     bool      `json:"liked" db:"liked" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (RatingEntry) TableName() string {
	return "user_movie_ratings"
}

// RatingValue 返回评分，未评分时为 0
func (e *RatingEntry) RatingValue() int {
	if e == nil || e.Rating == nil {
		return 0
	}
	return *e.Rating
}
