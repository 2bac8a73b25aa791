package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"telegram-classifieds-notify/internal/domain"
	"telegram-classifieds-notify/internal/domain/model"
	"telegram-classifieds-notify/internal/domain/ports/repository"
)

// DestinationResolver turns abstract destination keys into concrete chat
// coordinates. Static aliases from the config file win over DB-backed rows.
type DestinationResolver struct {
	aliases map[string]model.Destination
	repo    repository.DestinationRepository
	log     *zerolog.Logger
}

func NewDestinationResolver(static []model.Destination, repo repository.DestinationRepository, logger *zerolog.Logger) *DestinationResolver {
	aliases := make(map[string]model.Destination, len(static))
	for _, d := range static {
		aliases[d.Key] = d
	}
	compLog := logger.With().Str("component", "DestinationResolver").Logger()
	return &DestinationResolver{aliases: aliases, repo: repo, log: &compLog}
}

// Resolve maps keys to destinations, preserving input order and dropping
// duplicates by chat id. Unknown, inactive, or chat-less keys are dropped
// silently; the caller proceeds with whatever subset resolved.
func (r *DestinationResolver) Resolve(ctx context.Context, keys []string) []model.Destination {
	out := make([]model.Destination, 0, len(keys))
	seen := make(map[int64]struct{}, len(keys))
	for _, key := range keys {
		dst, ok := r.resolveOne(ctx, key)
		if !ok {
			continue
		}
		if !dst.Valid() {
			r.log.Warn().Str("key", key).Msg("destination has no chat id, dropped")
			continue
		}
		if !dst.Active {
			r.log.Debug().Str("key", key).Msg("destination inactive, dropped")
			continue
		}
		if _, dup := seen[dst.ChatID]; dup {
			continue
		}
		seen[dst.ChatID] = struct{}{}
		out = append(out, dst)
	}
	return out
}

func (r *DestinationResolver) resolveOne(ctx context.Context, key string) (model.Destination, bool) {
	if dst, ok := r.aliases[key]; ok {
		return dst, true
	}
	if r.repo == nil {
		return model.Destination{}, false
	}
	dst, err := r.repo.FindByKey(ctx, repository.NoTX, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			r.log.Warn().Err(err).Str("key", key).Msg("destination lookup failed, dropped")
		}
		return model.Destination{}, false
	}
	return *dst, true
}
