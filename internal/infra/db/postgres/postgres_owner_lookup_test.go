//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"telegram-classifieds-notify/internal/domain"
	"telegram-classifieds-notify/internal/domain/model"
)

func TestOwnerLookupRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewOwnerLookupRepo(testPool)

	seed := func(t *testing.T) (adID, postID int64) {
		t.Helper()
		cleanup(t)

		var userID int64
		err := testPool.QueryRow(ctx,
			`INSERT INTO users (telegram_id, username) VALUES (777, 'seller') RETURNING id`,
		).Scan(&userID)
		if err != nil {
			t.Fatalf("seed user: %v", err)
		}
		if err := testPool.QueryRow(ctx,
			`INSERT INTO ads (author_id, title) VALUES ($1, 'Bike') RETURNING id`, userID,
		).Scan(&adID); err != nil {
			t.Fatalf("seed ad: %v", err)
		}
		if err := testPool.QueryRow(ctx,
			`INSERT INTO posts (author_id, title) VALUES ($1, 'Hello') RETURNING id`, userID,
		).Scan(&postID); err != nil {
			t.Fatalf("seed post: %v", err)
		}
		return adID, postID
	}

	t.Run("should resolve the owner chat for ads and posts", func(t *testing.T) {
		adID, postID := seed(t)

		chatID, err := repo.OwnerChatID(ctx, nil, model.EntityAd, adID)
		if err != nil {
			t.Fatalf("OwnerChatID(ad) failed: %v", err)
		}
		if chatID != 777 {
			t.Errorf("ad owner chat = %d, want 777", chatID)
		}

		chatID, err = repo.OwnerChatID(ctx, nil, model.EntityPost, postID)
		if err != nil {
			t.Fatalf("OwnerChatID(post) failed: %v", err)
		}
		if chatID != 777 {
			t.Errorf("post owner chat = %d, want 777", chatID)
		}
	})

	t.Run("should report not found for a missing entity", func(t *testing.T) {
		seed(t)

		if _, err := repo.OwnerChatID(ctx, nil, model.EntityAd, 99999); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("should reject an unknown entity type", func(t *testing.T) {
		if _, err := repo.OwnerChatID(ctx, nil, "user", 1); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("got %v, want ErrInvalidArgument", err)
		}
	})
}
