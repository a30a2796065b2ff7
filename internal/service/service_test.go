package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/user/moovie-catalog/internal/model"
	"github.com/user/moovie-catalog/internal/repository"
)

func newTestRepos(t *testing.T) *repository.Repositories {
	t.Helper()
	db, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "service.db"), nil)
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
	return repository.NewRepositories(db)
}

func seed(t *testing.T, repos *repository.Repositories, movies ...*model.Movie) {
	t.Helper()
	if err := repos.Movie.Create(context.Background(), movies...); err != nil {
		t.Fatalf("seed movies: %v", err)
	}
}

func seedUser(t *testing.T, repos *repository.Repositories, email string) *model.User {
	t.Helper()
	user := &model.User{Username: "viewer", Email: email}
	if err := repos.User.Create(context.Background(), user, "Secret123"); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

type stubRecommender struct {
	similar map[int][]Recommendation
	forUser map[int][]Recommendation
}

func (s *stubRecommender) SimilarTo(_ context.Context, movieID int) []Recommendation {
	return s.similar[movieID]
}

func (s *stubRecommender) ForUser(_ context.Context, userID int) []Recommendation {
	return s.forUser[userID]
}

func movieIDs(movies []model.Movie) []int {
	out := make([]int, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.ID)
	}
	return out
}

func sameIDs(got []model.Movie, want ...int) bool {
	ids := movieIDs(got)
	if len(ids) != len(want) {
		return false
	}
	for i := range ids {
		if ids[i] != want[i] {
			return false
		}
	}
	return true
}
