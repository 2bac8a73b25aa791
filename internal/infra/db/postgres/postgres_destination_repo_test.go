//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"telegram-classifieds-notify/internal/domain"
	"telegram-classifieds-notify/internal/domain/model"
)

func TestDestinationRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewDestinationRepo(testPool)

	t.Run("should save and find a destination by key", func(t *testing.T) {
		cleanup(t)

		dst := &model.Destination{Key: "bikes", ChatID: -100123, ThreadID: 7, Name: "Bikes", Active: true}
		if err := repo.Save(ctx, nil, dst); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		found, err := repo.FindByKey(ctx, nil, "bikes")
		if err != nil {
			t.Fatalf("FindByKey failed: %v", err)
		}
		if found.ChatID != -100123 || found.ThreadID != 7 || !found.Active {
			t.Errorf("unexpected destination: %+v", found)
		}
	})

	t.Run("should upsert on a duplicate key", func(t *testing.T) {
		cleanup(t)

		dst := &model.Destination{Key: "bikes", ChatID: -100123, Active: true}
		if err := repo.Save(ctx, nil, dst); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		dst.ChatID = -100999
		dst.Active = false
		if err := repo.Save(ctx, nil, dst); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		found, err := repo.FindByKey(ctx, nil, "bikes")
		if err != nil {
			t.Fatalf("FindByKey failed: %v", err)
		}
		if found.ChatID != -100999 || found.Active {
			t.Errorf("upsert did not replace the row: %+v", found)
		}
	})

	t.Run("should list only active destinations", func(t *testing.T) {
		cleanup(t)

		for _, d := range []*model.Destination{
			{Key: "general", ChatID: -100100, Active: true},
			{Key: "bikes", ChatID: -100200, Active: true},
			{Key: "archived", ChatID: -100300, Active: false},
		} {
			if err := repo.Save(ctx, nil, d); err != nil {
				t.Fatalf("Save(%s) failed: %v", d.Key, err)
			}
		}

		active, err := repo.ListActive(ctx, nil)
		if err != nil {
			t.Fatalf("ListActive failed: %v", err)
		}
		if len(active) != 2 {
			t.Fatalf("expected 2 active destinations, got %d", len(active))
		}
		for _, d := range active {
			if !d.Active {
				t.Errorf("inactive destination in list: %+v", d)
			}
		}
	})

	t.Run("should report not found for an unknown key", func(t *testing.T) {
		cleanup(t)

		if _, err := repo.FindByKey(ctx, nil, "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})
}
