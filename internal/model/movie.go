package model

import (
	"time"
)

// ReleaseDateLayout release_date 字段的存储格式（MM/DD/YYYY）
const ReleaseDateLayout = "01/02/2006"

// Movie 电影模型
// PK 为存储内部主键，ID 为外部数据源提供的稳定编号，所有查询均按 ID 进行
type Movie struct {
	PK                  uint      `json:"-" gorm:"column:pk;primaryKey"`
	ID                  int       `json:"id" gorm:"uniqueIndex;not null"`
	IMDbID              string    `json:"imdb_id,omitempty"`
	Title               string    `json:"title" gorm:"not null;index"`
	Cast                string    `json:"cast"`
	Director            string    `json:"director"`
	Keywords            string    `json:"keywords"`
	Overview            string    `json:"overview"`
	Genres              string    `json:"genres"` // 逗号分隔
	ReleaseDate         string    `json:"release_date,omitempty"`
	ReleaseYear         int       `json:"release_year,omitempty"`
	Popularity          float64   `json:"popularity" gorm:"type:double precision;not null;default:0;index"`
	Rating              float64   `json:"rating" gorm:"type:double precision;not null;default:0;index"`
	VoteCount           int       `json:"vote_count" gorm:"not null;default:0;check:vote_count >= 0"`
	Runtime             float64   `json:"runtime,omitempty"`
	ProductionCompanies string    `json:"production_companies,omitempty"`
	PosterFilePath      string    `json:"poster_file_path,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// ReleasedOn 解析上映日期，格式不合法或日期不存在时返回 false
// 与仓库层排序使用的日期键规则一致
func (m *Movie) ReleasedOn() (time.Time, bool) {
	if m.ReleaseDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(ReleaseDateLayout, m.ReleaseDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
