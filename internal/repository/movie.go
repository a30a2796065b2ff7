package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/user/moovie-catalog/internal/model"
	"gorm.io/gorm"
)

// errMovieMissing 事务内部使用，表示目标电影不存在
var errMovieMissing = errors.New("movie missing")

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// searchScope 标题 / 类型 / 关键词 任一字段包含 query（忽略大小写）
// query 按字面匹配，LIKE 通配符会被转义
func searchScope(query string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		query = strings.TrimSpace(query)
		if query == "" {
			return db
		}
		pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
		return db.Where(
			"LOWER(title) LIKE ? ESCAPE '!' OR LOWER(genres) LIKE ? ESCAPE '!' OR LOWER(keywords) LIKE ? ESCAPE '!'",
			pattern, pattern, pattern,
		)
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// releaseKeyExpr 将 MM/DD/YYYY 转为可比较的 YYYYMMDD 字符串
// 格式不合法或日期不存在（13 月、2 月 31 日、非闰年 2 月 29 日）时为 NULL
func (r *MovieRepository) releaseKeyExpr() string {
	shape := "release_date GLOB '[0-9][0-9]/[0-9][0-9]/[0-9][0-9][0-9][0-9]'"
	if r.db.Dialector.Name() == "postgres" {
		shape = "release_date ~ '^[0-9]{2}/[0-9]{2}/[0-9]{4}$'"
	}
	const (
		month = "substr(release_date, 1, 2)"
		day   = "substr(release_date, 4, 2)"
		year  = "CAST(substr(release_date, 7, 4) AS INTEGER)"
	)
	leap := "(" + year + " % 4 = 0 AND (" + year + " % 100 <> 0 OR " + year + " % 400 = 0))"
	lastDay := "(CASE WHEN " + month + " = '02' THEN (CASE WHEN " + leap + " THEN '29' ELSE '28' END)" +
		" WHEN " + month + " IN ('04', '06', '09', '11') THEN '30' ELSE '31' END)"
	valid := month + " BETWEEN '01' AND '12' AND " + day + " BETWEEN '01' AND " + lastDay

	// 先校验形状再做 CAST，避免 postgres 对非数字年份报错
	return "(CASE WHEN " + shape + " THEN (CASE WHEN " + valid +
		" THEN substr(release_date, 7, 4) || " + month + " || " + day + " END) END)"
}

// Count 统计匹配 query 的电影数量，query 为空时统计全部
func (r *MovieRepository) Count(ctx context.Context, query string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Movie{}).Scopes(searchScope(query)).Count(&count).Error
	return count, err
}

// List 分页获取匹配 query 的电影，按 id 升序保证翻页稳定
func (r *MovieRepository) List(ctx context.Context, query string, offset, limit int) ([]model.Movie, error) {
	movies := []model.Movie{}
	err := r.db.WithContext(ctx).
		Scopes(searchScope(query)).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&movies).Error
	return movies, err
}

// ListByPopularity 按热度降序
func (r *MovieRepository) ListByPopularity(ctx context.Context, limit int) ([]model.Movie, error) {
	movies := []model.Movie{}
	err := r.db.WithContext(ctx).Order("popularity DESC").Order("id ASC").Limit(limit).Find(&movies).Error
	return movies, err
}

// ListByRating 按评分降序
func (r *MovieRepository) ListByRating(ctx context.Context, limit int) ([]model.Movie, error) {
	movies := []model.Movie{}
	err := r.db.WithContext(ctx).Order("rating DESC").Order("id ASC").Limit(limit).Find(&movies).Error
	return movies, err
}

// ListNewest 按解析后的上映日期降序，日期缺失或无法解析的排在最后
func (r *MovieRepository) ListNewest(ctx context.Context, limit int) ([]model.Movie, error) {
	key := r.releaseKeyExpr()
	movies := []model.Movie{}
	err := r.db.WithContext(ctx).
		Order(key + " IS NULL").
		Order(key + " DESC").
		Order("id ASC").
		Limit(limit).
		Find(&movies).Error
	return movies, err
}

// ListReleasingFrom 上映日期 >= from（YYYYMMDD）的电影，按日期升序
func (r *MovieRepository) ListReleasingFrom(ctx context.Context, from string, limit int) ([]model.Movie, error) {
	key := r.releaseKeyExpr()
	movies := []model.Movie{}
	err := r.db.WithContext(ctx).
		Where(key+" >= ?", from).
		Order(key + " ASC").
		Order("id ASC").
		Limit(limit).
		Find(&movies).Error
	return movies, err
}

// FindByID 根据外部 ID 查找电影，不存在时返回 (nil, nil)
func (r *MovieRepository) FindByID(ctx context.Context, id int) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&movie).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// FindByTitles 按标题集合查找电影
// 标题并不唯一，同名电影会全部返回
func (r *MovieRepository) FindByTitles(ctx context.Context, titles []string) ([]model.Movie, error) {
	movies := []model.Movie{}
	if len(titles) == 0 {
		return movies, nil
	}
	err := r.db.WithContext(ctx).Where("title IN ?", titles).Order("id ASC").Find(&movies).Error
	return movies, err
}

// ApplyRating 原子地把一次评分累加进电影的平均分与票数
// 读取旧值、计算、写回在同一条 UPDATE 中完成，并发提交不会丢票
// 电影不存在时返回 (nil, nil)
func (r *MovieRepository) ApplyRating(ctx context.Context, movieID, rating int) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Movie{}).
			Where("id = ?", movieID).
			Updates(map[string]interface{}{
				"rating":     gorm.Expr("(rating * vote_count + ?) / (vote_count + 1)", float64(rating)),
				"vote_count": gorm.Expr("vote_count + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errMovieMissing
		}
		return tx.Where("id = ?", movieID).First(&movie).Error
	})
	if errors.Is(err, errMovieMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// Create 写入电影（种子数据 / 测试使用）
func (r *MovieRepository) Create(ctx context.Context, movies ...*model.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(movies).Error
}
