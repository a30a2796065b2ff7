package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/user/moovie-catalog/internal/logging"
	"github.com/user/moovie-catalog/internal/metrics"
	"github.com/user/moovie-catalog/internal/utils"
)

const (
	endpointSimilar = "/recommendmovies"
	endpointForUser = "/recommend"
)

// Recommendation 推荐引擎返回的一条结果
type Recommendation struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Recommender 推荐引擎
// 任何失败都降级为空列表，不向调用方返回错误
type Recommender interface {
	SimilarTo(ctx context.Context, movieID int) []Recommendation
	ForUser(ctx context.Context, userID int) []Recommendation
}

// RecommenderOptions 推荐引擎客户端配置
type RecommenderOptions struct {
	Timeout          time.Duration // 单次调用超时
	FailureThreshold uint32        // 连续失败多少次后熔断
	OpenTimeout      time.Duration // 熔断后多久进入半开
}

// RecommendationClient 外部推荐引擎的 HTTP 客户端，带超时与熔断
type RecommendationClient struct {
	baseURL string
	timeout time.Duration
	client  *utils.HTTPClient
	cb      *gobreaker.CircuitBreaker[[]Recommendation]
}

// NewRecommendationClient 创建推荐引擎客户端
func NewRecommendationClient(baseURL string, opts RecommenderOptions) *RecommendationClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	metrics.RecommenderCircuitState.Set(0)
	threshold := opts.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[[]Recommendation](gobreaker.Settings{
		Name:        "recommender",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("from", from.String()).Str("to", to.String()).Msg("[Recommender] 熔断器状态变化")
			metrics.RecommenderCircuitState.Set(stateToFloat(to))
		},
	})

	return &RecommendationClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: opts.Timeout,
		client:  utils.NewHTTPClient(opts.Timeout),
		cb:      cb,
	}
}

// SimilarTo 与指定电影相似的电影
// 引擎返回的第一条通常是电影本身
func (c *RecommendationClient) SimilarTo(ctx context.Context, movieID int) []Recommendation {
	return c.call(ctx, endpointSimilar, map[string]int{"id": movieID}, func(body []byte) ([]Recommendation, error) {
		var resp struct {
			Recommendations []similarPair `json:"recommendations"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, err
		}
		out := make([]Recommendation, 0, len(resp.Recommendations))
		for _, p := range resp.Recommendations {
			out = append(out, Recommendation(p))
		}
		return out, nil
	})
}

// ForUser 个性化推荐
func (c *RecommendationClient) ForUser(ctx context.Context, userID int) []Recommendation {
	return c.call(ctx, endpointForUser, map[string]int{"user_id": userID}, func(body []byte) ([]Recommendation, error) {
		var resp struct {
			Recommendations []struct {
				Title      string    `json:"title"`
				Similarity flexFloat `json:"similarity"`
			} `json:"recommendations"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, err
		}
		out := make([]Recommendation, 0, len(resp.Recommendations))
		for _, r := range resp.Recommendations {
			out = append(out, Recommendation{Title: r.Title, Score: float64(r.Similarity)})
		}
		return out, nil
	})
}

func (c *RecommendationClient) call(
	ctx context.Context,
	endpoint string,
	payload interface{},
	decode func([]byte) ([]Recommendation, error),
) []Recommendation {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	recs, err := c.cb.Execute(func() ([]Recommendation, error) {
		var raw json.RawMessage
		if err := c.client.PostJSON(ctx, c.baseURL+endpoint, payload, &raw); err != nil {
			return nil, err
		}
		return decode(raw)
	})
	if err != nil {
		result := "failure"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			result = "rejected"
		}
		metrics.RecommenderRequests.WithLabelValues(endpoint, result).Inc()
		logging.Warn().Err(err).Str("endpoint", endpoint).Msg("[Recommender] 推荐引擎不可用，返回空列表")
		return []Recommendation{}
	}

	metrics.RecommenderRequests.WithLabelValues(endpoint, "success").Inc()
	return recs
}

// similarPair 解析 [title, score] 形式的二元组
type similarPair Recommendation

func (p *similarPair) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) == 0 {
		return fmt.Errorf("empty recommendation pair")
	}
	if err := json.Unmarshal(parts[0], &p.Title); err != nil {
		return fmt.Errorf("recommendation title: %w", err)
	}
	if len(parts) > 1 {
		var score flexFloat
		if err := json.Unmarshal(parts[1], &score); err != nil {
			return err
		}
		p.Score = float64(score)
	}
	return nil
}

// flexFloat 兼容数字或字符串形式的分数
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("recommendation score %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Titles 提取标题列表
func Titles(recs []Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		if r.Title != "" {
			out = append(out, r.Title)
		}
	}
	return out
}
