package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-classifieds-notify/internal/domain"
	"telegram-classifieds-notify/internal/domain/model"
	"telegram-classifieds-notify/internal/domain/ports/repository"
	"telegram-classifieds-notify/internal/usecase"
)

// A struct to define the expected JSON request body for a notification.
type notifyRequest struct {
	EntityType      string   `json:"entity_type"`
	EntityID        int64    `json:"entity_id"`
	Kind            string   `json:"kind"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	Price           *int     `json:"price"`
	AuthorName      string   `json:"author_name"`
	AuthorID        int64    `json:"author_id"`
	Link            string   `json:"link"`
	BookingCount    int      `json:"booking_count"`
	PhotoURLs       []string `json:"photo_urls"`
	DestinationKeys []string `json:"destination_keys"`
}

func (r notifyRequest) toModel() model.Notification {
	return model.Notification{
		EntityType:      model.EntityType(r.EntityType),
		EntityID:        r.EntityID,
		Kind:            model.UpdateKind(r.Kind),
		Title:           r.Title,
		Content:         r.Content,
		Price:           r.Price,
		AuthorName:      r.AuthorName,
		AuthorID:        r.AuthorID,
		Link:            r.Link,
		BookingCount:    r.BookingCount,
		PhotoURLs:       r.PhotoURLs,
		DestinationKeys: r.DestinationKeys,
	}
}

type dispatchResultView struct {
	ChatID  int64  `json:"chat_id"`
	Action  string `json:"action"`
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// notifyHandler dispatches a notification synchronously and returns the
// per-destination outcome. Meant for operators re-sending a listing by hand.
func notifyHandler(notifyUC usecase.NotifyUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req notifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		results, err := notifyUC.Publish(ctx, req.toModel())
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) || errors.Is(err, domain.ErrMissingTitle) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to dispatch notification", http.StatusInternalServerError)
			return
		}

		views := make([]dispatchResultView, 0, len(results))
		for _, res := range results {
			v := dispatchResultView{
				ChatID:  res.ChatID,
				Action:  string(res.Action),
				OK:      res.OK,
				Skipped: res.Skipped,
			}
			if res.Err != nil {
				v.Error = res.Err.Error()
			}
			views = append(views, v)
		}

		response := struct {
			Results []dispatchResultView `json:"results"`
		}{Results: views}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

// notifyAsyncHandler enqueues a notification onto the dispatch queue and
// returns immediately. This is the path domain services use.
func notifyAsyncHandler(notifyUC usecase.NotifyUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req notifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := notifyUC.PublishAsync(req.toModel()); err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrMissingTitle):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrQueueFull):
				http.Error(w, "Dispatch queue is full", http.StatusServiceUnavailable)
			default:
				http.Error(w, "Failed to enqueue notification", http.StatusInternalServerError)
			}
			return
		}

		w.WriteHeader(http.StatusAccepted)
	}
}

func destinationsListHandler(repo repository.DestinationRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		dsts, err := repo.ListActive(ctx, repository.NoTX)
		if err != nil {
			http.Error(w, "Failed to list destinations", http.StatusInternalServerError)
			return
		}

		response := struct {
			Data []*model.Destination `json:"data"`
		}{Data: dsts}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

type destinationUpsertRequest struct {
	ChatID   int64  `json:"chat_id"`
	ThreadID int    `json:"thread_id"`
	Name     string `json:"name"`
	Active   bool   `json:"active"`
}

// destinationsUpsertHandler creates or updates a DB-backed destination under
// the key in the URL.
func destinationsUpsertHandler(repo repository.DestinationRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		key := chi.URLParam(r, "key")
		if key == "" {
			http.Error(w, "Destination key is required", http.StatusBadRequest)
			return
		}

		var req destinationUpsertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.ChatID == 0 {
			http.Error(w, "chat_id is required", http.StatusBadRequest)
			return
		}

		dst := &model.Destination{
			Key:      key,
			ChatID:   req.ChatID,
			ThreadID: req.ThreadID,
			Name:     req.Name,
			Active:   req.Active,
		}
		if err := repo.Save(ctx, repository.NoTX, dst); err != nil {
			http.Error(w, "Failed to save destination", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(dst)
	}
}

// UpdateHandler consumes one Telegram update. Satisfied by telegram.Receiver,
// shared between polling and webhook inbound modes.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

// webhookHandler decodes a Telegram webhook callback into an update.
// Telegram expects a 2xx quickly; handler errors are logged, not returned.
func (s *Server) webhookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, "Invalid update payload", http.StatusBadRequest)
			return
		}

		if err := s.updates.HandleUpdate(r.Context(), update); err != nil {
			s.log.Error().Err(err).Msg("webhook update handling failed")
		}
		w.WriteHeader(http.StatusOK)
	}
}
