package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/user/moovie-catalog/internal/config"
	"github.com/user/moovie-catalog/internal/handler"
	"github.com/user/moovie-catalog/internal/model"
	"github.com/user/moovie-catalog/internal/repository"
	"github.com/user/moovie-catalog/internal/service"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

type stubRecommender struct{}

func (stubRecommender) SimilarTo(_ context.Context, movieID int) []service.Recommendation {
	return []service.Recommendation{{Title: "Answer", Score: 1}, {Title: "Question", Score: 0.6}}
}

func (stubRecommender) ForUser(_ context.Context, _ int) []service.Recommendation {
	return []service.Recommendation{{Title: "Question", Score: 0.9}}
}

type testApp struct {
	engine *gin.Engine
	repos  *repository.Repositories
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "router.db"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	repos := repository.NewRepositories(db)
	if err := repos.Movie.Create(context.Background(),
		&model.Movie{ID: 42, Title: "Answer", Genres: "Drama", Rating: 7.0, VoteCount: 2, ReleaseDate: "01/01/2020"},
		&model.Movie{ID: 43, Title: "Question", Genres: "Mystery", ReleaseDate: "06/15/2023"},
	); err != nil {
		t.Fatalf("seed movies: %v", err)
	}

	cfg := &config.Config{
		Env:            "test",
		AppSecret:      "router-test-secret",
		JWTExpiry:      time.Hour,
		RailCacheTTL:   time.Minute,
		SearchCacheTTL: time.Minute,
	}
	h := handler.NewHandler(repos, cfg, stubRecommender{})
	return &testApp{engine: New(h), repos: repos}
}

func (a *testApp) do(t *testing.T, method, target, token string, form url.Values) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, target, err, w.Body.String())
		}
	}
	return w, env
}

func (a *testApp) signupAndLogin(t *testing.T, email string) string {
	t.Helper()
	w, _ := a.do(t, http.MethodPost, "/signup", "", url.Values{
		"username":   {"rater"},
		"email":      {email},
		"password":   {"Secret123"},
		"repassword": {"Secret123"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d %s", w.Code, w.Body.String())
	}

	w, env := a.do(t, http.MethodPost, "/login", "", url.Values{
		"email":    {email},
		"password": {"Secret123"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d %s", w.Code, w.Body.String())
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login: missing token in %s", env.Data)
	}
	return data.Token
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	w, _ := app.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", w.Code)
	}

	w, _ = app.do(t, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "moovie_http_requests_total") {
		t.Fatalf("metrics: unexpected response %d", w.Code)
	}
}

func TestMoviesEndpoint(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		target string
		status int
		total  int64
	}{
		{name: "default page", target: "/movies", status: http.StatusOK, total: 2},
		{name: "query", target: "/movies?query=drama", status: http.StatusOK, total: 1},
		{name: "search alias", target: "/search?q=mystery", status: http.StatusOK, total: 1},
		{name: "zero page", target: "/movies?page=0", status: http.StatusBadRequest},
		{name: "non numeric page", target: "/movies?page=abc", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := app.do(t, http.MethodGet, tt.target, "", nil)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d %s", tt.status, w.Code, w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var result service.SearchResult
			if err := json.Unmarshal(env.Data, &result); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if result.Total != tt.total || result.CurrentPage != 1 || result.TotalPages != 1 {
				t.Fatalf("unexpected result %+v", result)
			}
		})
	}
}

func TestMovieDetailEndpoint(t *testing.T) {
	app := newTestApp(t)

	w, env := app.do(t, http.MethodGet, "/movies/42", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var detail service.MovieDetail
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Movie.ID != 42 || detail.UserRating != 0 {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if len(detail.Related) != 1 || detail.Related[0].ID != 43 {
		t.Fatalf("unexpected related movies %+v", detail.Related)
	}

	if w, _ := app.do(t, http.MethodGet, "/movies/999", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown movie, got %d", w.Code)
	}
	if w, _ := app.do(t, http.MethodGet, "/movies/abc", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", w.Code)
	}
}

func TestRatingFlow(t *testing.T) {
	app := newTestApp(t)

	if w, _ := app.do(t, http.MethodPost, "/movies/42/rate", "", url.Values{"rating": {"10"}}); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without login, got %d", w.Code)
	}

	token := app.signupAndLogin(t, "rater@example.com")

	w, env := app.do(t, http.MethodPost, "/movies/42/rate", token, url.Values{"rating": {"10"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	var outcome service.RatingOutcome
	if err := json.Unmarshal(env.Data, &outcome); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if outcome.Rating != 8.0 || outcome.VoteCount != 3 {
		t.Fatalf("expected {8.0, 3}, got %+v", outcome)
	}

	for _, bad := range []string{"0", "11", "seven"} {
		if w, _ := app.do(t, http.MethodPost, "/movies/42/rate", token, url.Values{"rating": {bad}}); w.Code != http.StatusBadRequest {
			t.Fatalf("rating %q: expected 400, got %d", bad, w.Code)
		}
	}
	if w, _ := app.do(t, http.MethodPost, "/movies/999/rate", token, url.Values{"rating": {"5"}}); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown movie, got %d", w.Code)
	}

	w, env = app.do(t, http.MethodGet, "/movies/42", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("detail: expected 200, got %d", w.Code)
	}
	var detail service.MovieDetail
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.UserRating != 10 || detail.Movie.VoteCount != 3 {
		t.Fatalf("expected viewer rating 10 over 3 votes, got %+v", detail)
	}

	w, env = app.do(t, http.MethodGet, "/profile", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d", w.Code)
	}
	var profile struct {
		User model.User `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(profile.User.MovieList) != 1 || profile.User.MovieList[0].MovieID != 42 || profile.User.MovieList[0].RatingValue() != 10 {
		t.Fatalf("unexpected ledger %+v", profile.User.MovieList)
	}
}

func TestRatingPartialFailure(t *testing.T) {
	app := newTestApp(t)
	token := app.signupAndLogin(t, "partial@example.com")

	if err := app.repos.DB.Migrator().DropTable(&model.RatingEntry{}); err != nil {
		t.Fatalf("drop ledger: %v", err)
	}

	w, env := app.do(t, http.MethodPost, "/movies/42/rate", token, url.Values{"rating": {"10"}})
	if w.Code != http.StatusMultiStatus {
		t.Fatalf("expected 207, got %d %s", w.Code, w.Body.String())
	}
	var outcome service.RatingOutcome
	if err := json.Unmarshal(env.Data, &outcome); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if outcome.VoteCount != 3 || outcome.LedgerUpdated {
		t.Fatalf("expected committed state without ledger, got %+v", outcome)
	}
}

func TestAuthEndpoints(t *testing.T) {
	app := newTestApp(t)
	app.signupAndLogin(t, "dup@example.com")

	w, _ := app.do(t, http.MethodPost, "/signup", "", url.Values{
		"username": {"again"}, "email": {"dup@example.com"}, "password": {"Secret123"}, "repassword": {"Secret123"},
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", w.Code)
	}

	w, _ = app.do(t, http.MethodPost, "/signup", "", url.Values{
		"username": {"weak"}, "email": {"weak@example.com"}, "password": {"password"}, "repassword": {"password"},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for weak password, got %d", w.Code)
	}

	w, _ = app.do(t, http.MethodPost, "/login", "", url.Values{"email": {"dup@example.com"}, "password": {"Wrong1234"}})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", w.Code)
	}

	w, _ = app.do(t, http.MethodPost, "/logout", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on logout, got %d", w.Code)
	}
}

func TestHomeEndpoint(t *testing.T) {
	app := newTestApp(t)
	token := app.signupAndLogin(t, "home@example.com")

	w, env := app.do(t, http.MethodGet, "/", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var page service.HomePage
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Newest) != 2 || page.Newest[0].ID != 43 {
		t.Fatalf("unexpected newest rail %+v", page.Newest)
	}
	if len(page.Recommendations) != 1 || page.Recommendations[0].ID != 43 {
		t.Fatalf("unexpected recommendations %+v", page.Recommendations)
	}
}
