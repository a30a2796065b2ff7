package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/user/moovie-catalog/internal/logging"
	"github.com/user/moovie-catalog/internal/metrics"
	"github.com/user/moovie-catalog/internal/model"
	"github.com/user/moovie-catalog/internal/repository"
	"github.com/user/moovie-catalog/internal/utils"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// PageSize 列表每页条数
const PageSize = 30

const (
	popularLimit    = 10
	topRatedLimit   = 10
	comingSoonLimit = 10
	newestLimit     = 5

	maxQueryLength = 200
)

// SearchParams 列表 / 搜索参数，Page 从 1 开始
type SearchParams struct {
	Page  int
	Query string
}

// SearchResult 分页结果
type SearchResult struct {
	Total       int64         `json:"total"`
	Data        []model.Movie `json:"data"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
	Query       string        `json:"query"`
}

// MovieDetail 电影详情，UserRating 为当前用户的评分（未评分或未登录为 0）
type MovieDetail struct {
	Movie      *model.Movie  `json:"movie"`
	UserRating int           `json:"userRating"`
	Related    []model.Movie `json:"related"`
}

// HomePage 首页各栏目
type HomePage struct {
	Newest          []model.Movie `json:"newest"`
	MostPopular     []model.Movie `json:"mostPopular"`
	TopRated        []model.Movie `json:"topRated"`
	ComingSoon      []model.Movie `json:"comingSoon"`
	Recommendations []model.Movie `json:"recommendations"`
}

// CatalogOptions 缓存配置
type CatalogOptions struct {
	RailTTL         time.Duration
	SearchTTL       time.Duration
	SearchCacheSize int
	// FillTimeout 单次栏目回填查询的超时
	FillTimeout time.Duration
}

// CatalogService 目录查询服务
// 读路径不加锁，缓存最多落后一次评分写入
type CatalogService struct {
	movies      *repository.MovieRepository
	ledger      *repository.RatingLedgerRepository
	recommender Recommender

	rails    *utils.TTLCache[[]model.Movie]
	searches *utils.LRUCache[*SearchResult]
	gen      atomic.Uint64
	sf       singleflight.Group

	fillTimeout time.Duration
	now         func() time.Time
}

// NewCatalogService 创建目录查询服务，recommender 可以为 nil
func NewCatalogService(
	movies *repository.MovieRepository,
	ledger *repository.RatingLedgerRepository,
	recommender Recommender,
	opts CatalogOptions,
) *CatalogService {
	if opts.RailTTL <= 0 {
		opts.RailTTL = time.Minute
	}
	if opts.SearchTTL <= 0 {
		opts.SearchTTL = 30 * time.Second
	}
	if opts.SearchCacheSize <= 0 {
		opts.SearchCacheSize = 1000
	}
	if opts.FillTimeout <= 0 {
		opts.FillTimeout = 5 * time.Second
	}
	return &CatalogService{
		movies:      movies,
		ledger:      ledger,
		recommender: recommender,
		rails:       utils.NewTTLCache[[]model.Movie](opts.RailTTL),
		searches:    utils.NewLRUCache[*SearchResult](opts.SearchCacheSize, opts.SearchTTL),
		fillTimeout: opts.FillTimeout,
		now:         time.Now,
	}
}

// Invalidate 清空缓存，评分写入后调用
// 旧代际的回填结果写入旧 key，不会再被读到
func (s *CatalogService) Invalidate() {
	s.gen.Add(1)
	s.rails.Clear()
	s.searches.Clear()
}

func (s *CatalogService) cacheKey(parts ...string) string {
	return strconv.FormatUint(s.gen.Load(), 10) + ":" + strings.Join(parts, ":")
}

// Search 分页搜索，query 为空时返回全部电影
// 按 id 升序保证翻页稳定；超出末页返回空数据
func (s *CatalogService) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.Page < 1 {
		return nil, ErrInvalidPage
	}
	query := strings.TrimSpace(params.Query)
	if len(query) > maxQueryLength {
		return nil, ErrInvalidQuery
	}

	key := s.cacheKey("search", strings.ToLower(query), strconv.Itoa(params.Page))
	if cached, ok := s.searches.Get(key); ok {
		return cached, nil
	}

	start := time.Now()
	defer metrics.ObserveQuery("search", start)

	total, err := s.movies.Count(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count movies: %w", err)
	}

	data := []model.Movie{}
	offset := (params.Page - 1) * PageSize
	if int64(offset) < total {
		data, err = s.movies.List(ctx, query, offset, PageSize)
		if err != nil {
			return nil, fmt.Errorf("list movies: %w", err)
		}
	}

	result := &SearchResult{
		Total:       total,
		Data:        data,
		CurrentPage: params.Page,
		TotalPages:  int((total + PageSize - 1) / PageSize),
		Query:       query,
	}
	s.searches.Set(key, result)
	return result, nil
}

// MostPopular 热门栏目
func (s *CatalogService) MostPopular(ctx context.Context) ([]model.Movie, error) {
	return s.rail(ctx, "most_popular", func(ctx context.Context) ([]model.Movie, error) {
		return s.movies.ListByPopularity(ctx, popularLimit)
	})
}

// HighestRated 高分栏目
func (s *CatalogService) HighestRated(ctx context.Context) ([]model.Movie, error) {
	return s.rail(ctx, "highest_rated", func(ctx context.Context) ([]model.Movie, error) {
		return s.movies.ListByRating(ctx, topRatedLimit)
	})
}

// ComingSoon 即将上映（上映日期 >= 今天），日期无法解析的不参与
func (s *CatalogService) ComingSoon(ctx context.Context) ([]model.Movie, error) {
	today := s.now().Format("20060102")
	return s.rail(ctx, "coming_soon:"+today, func(ctx context.Context) ([]model.Movie, error) {
		return s.movies.ListReleasingFrom(ctx, today, comingSoonLimit)
	})
}

// Newest 最新上映，日期缺失或无法解析的排在最后
func (s *CatalogService) Newest(ctx context.Context) ([]model.Movie, error) {
	return s.rail(ctx, "newest", func(ctx context.Context) ([]model.Movie, error) {
		return s.movies.ListNewest(ctx, newestLimit)
	})
}

func (s *CatalogService) rail(
	ctx context.Context,
	name string,
	fetch func(context.Context) ([]model.Movie, error),
) ([]model.Movie, error) {
	key := s.cacheKey("rail", name)
	if cached, ok := s.rails.Get(key); ok {
		return cached, nil
	}

	// 并发的缓存未命中合并为一次查询
	// 回填使用独立的 context，发起方断开不影响同时等待的其他请求
	ch := s.sf.DoChan(key, func() (interface{}, error) {
		start := time.Now()
		defer metrics.ObserveQuery(name, start)

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fillTimeout)
		defer cancel()
		movies, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		s.rails.Set(key, movies)
		return movies, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s rail: %w", name, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%s rail: %w", name, res.Err)
		}
		return res.Val.([]model.Movie), nil
	}
}

// Home 首页：四个栏目并发查询，登录用户附带个性化推荐
// 推荐失败降级为空列表，栏目查询失败则整个请求失败
func (s *CatalogService) Home(ctx context.Context, viewer *int) (*HomePage, error) {
	page := &HomePage{Recommendations: []model.Movie{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		page.Newest, err = s.Newest(gctx)
		return err
	})
	g.Go(func() (err error) {
		page.MostPopular, err = s.MostPopular(gctx)
		return err
	})
	g.Go(func() (err error) {
		page.TopRated, err = s.HighestRated(gctx)
		return err
	})
	g.Go(func() (err error) {
		page.ComingSoon, err = s.ComingSoon(gctx)
		return err
	})
	if viewer != nil && s.recommender != nil {
		userID := *viewer
		g.Go(func() error {
			titles := Titles(s.recommender.ForUser(gctx, userID))
			movies, err := s.JoinRecommendations(gctx, titles)
			if err != nil {
				logging.Warn().Err(err).Int("user_id", userID).Msg("[CatalogService] 个性化推荐关联失败")
				return nil
			}
			page.Recommendations = movies
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return page, nil
}

// Detail 电影详情
// viewer 为 nil 表示未登录
func (s *CatalogService) Detail(ctx context.Context, movieID int, viewer *int) (*MovieDetail, error) {
	start := time.Now()
	defer metrics.ObserveQuery("detail", start)

	movie, err := s.movies.FindByID(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("find movie %d: %w", movieID, err)
	}
	if movie == nil {
		return nil, ErrMovieNotFound
	}

	detail := &MovieDetail{Movie: movie, Related: []model.Movie{}}
	if viewer != nil {
		detail.UserRating, err = s.ledger.FindRating(ctx, *viewer, movieID)
		if err != nil {
			return nil, fmt.Errorf("find user rating: %w", err)
		}
	}

	if s.recommender == nil {
		return detail, nil
	}
	recs := s.recommender.SimilarTo(ctx, movieID)
	if len(recs) > 1 {
		// 第一条是电影本身
		related, err := s.JoinRecommendations(ctx, Titles(recs[1:]))
		if err != nil {
			logging.Warn().Err(err).Int("movie_id", movieID).Msg("[CatalogService] 相关电影关联失败")
			return detail, nil
		}
		for _, m := range related {
			if m.ID != movieID {
				detail.Related = append(detail.Related, m)
			}
		}
	}
	return detail, nil
}

// JoinRecommendations 按标题把推荐结果关联回电影
// 标题不唯一，同名电影全部返回；结果按推荐顺序排列
func (s *CatalogService) JoinRecommendations(ctx context.Context, titles []string) ([]model.Movie, error) {
	if len(titles) == 0 {
		return []model.Movie{}, nil
	}

	rank := make(map[string]int, len(titles))
	unique := make([]string, 0, len(titles))
	for _, t := range titles {
		if _, ok := rank[t]; ok {
			continue
		}
		rank[t] = len(unique)
		unique = append(unique, t)
	}

	movies, err := s.movies.FindByTitles(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("join recommendations: %w", err)
	}

	buckets := make([][]model.Movie, len(unique))
	for _, m := range movies {
		if i, ok := rank[m.Title]; ok {
			buckets[i] = append(buckets[i], m)
		}
	}
	out := make([]model.Movie, 0, len(movies))
	for _, b := range buckets {
		out = append(out, b...)
	}
	return out, nil
}
