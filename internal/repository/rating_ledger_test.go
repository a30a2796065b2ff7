package repository

import (
	"context"
	"testing"

	"github.com/user/moovie-catalog/internal/model"
)

func createUser(t *testing.T, repo *UserRepository, email string) *model.User {
	t.Helper()
	user := &model.User{Username: "tester", Email: email}
	if err := repo.Create(context.Background(), user, "Secret123"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestRatingLedgerRepository_UpsertLastWriteWins(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	ledger := NewRatingLedgerRepository(db)
	ctx := context.Background()
	user := createUser(t, users, "a@example.com")

	if err := ledger.Upsert(ctx, user.ID, 42, 6); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := ledger.Upsert(ctx, user.ID, 42, 9); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	rating, err := ledger.FindRating(ctx, user.ID, 42)
	if err != nil {
		t.Fatalf("find rating: %v", err)
	}
	if rating != 9 {
		t.Fatalf("expected last rating 9, got %d", rating)
	}
	count, err := ledger.CountByUser(ctx, user.ID)
	if err != nil || count != 1 {
		t.Fatalf("expected single ledger entry, got %d err=%v", count, err)
	}
}

func TestRatingLedgerRepository_FindRatingAbsent(t *testing.T) {
	ledger := NewRatingLedgerRepository(newTestDB(t))
	rating, err := ledger.FindRating(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if rating != 0 {
		t.Fatalf("expected 0 for absent rating, got %d", rating)
	}
}

func TestRatingLedgerRepository_UpsertKeepsLiked(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	ledger := NewRatingLedgerRepository(db)
	ctx := context.Background()
	user := createUser(t, users, "liked@example.com")

	if err := ledger.Upsert(ctx, user.ID, 7, 5); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := db.Model(&model.RatingEntry{}).Where("user_id = ? AND movie_id = ?", user.ID, 7).Update("liked", true).Error; err != nil {
		t.Fatalf("mark liked: %v", err)
	}
	if err := ledger.Upsert(ctx, user.ID, 7, 8); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	entries, err := ledger.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || !entries[0].Liked || entries[0].RatingValue() != 8 {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	ledger := NewRatingLedgerRepository(db)
	ctx := context.Background()
	user := createUser(t, users, "  Mixed@Example.com ")

	if user.Email != "mixed@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Avatar != model.DefaultAvatar {
		t.Fatalf("expected default avatar, got %q", user.Avatar)
	}

	found, err := users.FindByEmail(ctx, "MIXED@example.com")
	if err != nil || found == nil {
		t.Fatalf("find by email: %v err=%v", found, err)
	}
	if !users.CheckPassword(found, "Secret123") || users.CheckPassword(found, "wrong") {
		t.Fatal("password check mismatch")
	}

	exists, err := users.Exists(ctx, user.ID)
	if err != nil || !exists {
		t.Fatalf("expected user to exist, err=%v", err)
	}
	exists, err = users.Exists(ctx, user.ID+100)
	if err != nil || exists {
		t.Fatalf("expected missing user, err=%v", err)
	}

	if err := ledger.Upsert(ctx, user.ID, 3, 4); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	withRatings, err := users.FindWithRatings(ctx, user.ID)
	if err != nil {
		t.Fatalf("find with ratings: %v", err)
	}
	if len(withRatings.MovieList) != 1 || withRatings.MovieList[0].MovieID != 3 {
		t.Fatalf("unexpected movie list %+v", withRatings.MovieList)
	}

	missing, err := users.FindByID(ctx, user.ID+100)
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil), got %v err=%v", missing, err)
	}
}
