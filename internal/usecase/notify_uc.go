package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-classifieds-notify/internal/domain"
	"telegram-classifieds-notify/internal/domain/model"
	"telegram-classifieds-notify/internal/domain/ports/adapter"
	"telegram-classifieds-notify/internal/domain/ports/repository"
	"telegram-classifieds-notify/internal/format"
	"telegram-classifieds-notify/internal/infra/logging"
	"telegram-classifieds-notify/internal/infra/metrics"
	"telegram-classifieds-notify/internal/infra/queue"
)

// Compile-time check
var _ NotifyUseCase = (*notifyUC)(nil)

// NotifyUseCase is the orchestrator translating a domain event into
// dispatch-client calls, consulting the message ledger to decide per
// destination whether to create, edit, skip, or delete.
type NotifyUseCase interface {
	// Publish runs a full dispatch synchronously and returns one result per
	// destination attempted. The error return covers caller bugs only
	// (bad entity, missing title); remote failures live in the results.
	Publish(ctx context.Context, n model.Notification) ([]model.DispatchResult, error)

	// PublishAsync validates up front, then defers dispatch onto the task
	// queue. Failures inside the task are logged, never surfaced to the
	// caller: notification is a best-effort side effect of the domain action.
	PublishAsync(n model.Notification) error

	// HandleReply forwards a reply posted in a destination chat to the
	// owner of the entity the replied-to message announces.
	HandleReply(ctx context.Context, chatID int64, messageID int, from, text string) error
}

type notifyUC struct {
	ledger    repository.OutboundMessageRepository
	owners    repository.OwnerLookup
	txm       repository.TransactionManager
	resolver  *DestinationResolver
	messenger adapter.Messenger
	tasks     *queue.TaskQueue
	maxPhotos int
	log       *zerolog.Logger
}

func NewNotifyUseCase(
	ledger repository.OutboundMessageRepository,
	owners repository.OwnerLookup,
	txm repository.TransactionManager,
	resolver *DestinationResolver,
	messenger adapter.Messenger,
	tasks *queue.TaskQueue,
	maxPhotos int,
	logger *zerolog.Logger,
) *notifyUC {
	if maxPhotos <= 0 {
		maxPhotos = 10
	}
	compLog := logger.With().Str("component", "NotifyUC").Logger()
	return &notifyUC{
		ledger:    ledger,
		owners:    owners,
		txm:       txm,
		resolver:  resolver,
		messenger: messenger,
		tasks:     tasks,
		maxPhotos: maxPhotos,
		log:       &compLog,
	}
}

func (uc *notifyUC) Publish(ctx context.Context, n model.Notification) ([]model.DispatchResult, error) {
	defer logging.TraceDuration(uc.log, "NotifyUC.Publish")()
	if err := validate(n); err != nil {
		return nil, err
	}

	existing, err := uc.ledger.FindByEntity(ctx, repository.NoTX, n.EntityType, n.EntityID)
	if err != nil {
		return nil, fmt.Errorf("load ledger for %s %d: %w", n.EntityType, n.EntityID, err)
	}
	byChat := groupByChat(existing)

	if n.Kind == model.KindDelete {
		return uc.deleteEverywhere(ctx, n, byChat), nil
	}

	text := format.ListingMessage(format.Listing{
		Title:        n.Title,
		Content:      n.Content,
		Price:        n.Price,
		AuthorName:   n.AuthorName,
		AuthorID:     n.AuthorID,
		Link:         n.Link,
		BookingCount: n.BookingCount,
	})

	dsts := uc.resolver.Resolve(ctx, n.DestinationKeys)
	results := make([]model.DispatchResult, 0, len(dsts))
	selected := make(map[int64]struct{}, len(dsts))
	for _, dst := range dsts {
		selected[dst.ChatID] = struct{}{}
		res := uc.dispatchOne(ctx, n, dst, byChat[dst.ChatID], text)
		metrics.IncDispatchAction(string(res.Action), res.OK)
		results = append(results, res)
	}

	// A chat that was deselected since the last send keeps no stale
	// announcement: its messages and ledger rows are removed.
	if n.Kind == model.KindUpdateText || n.Kind == model.KindRepost {
		for chatID, rows := range byChat {
			if _, ok := selected[chatID]; ok {
				continue
			}
			res := uc.deleteForChat(ctx, n, chatID, rows)
			metrics.IncDispatchAction(string(res.Action), res.OK)
			results = append(results, res)
		}
	}

	return results, nil
}

func (uc *notifyUC) PublishAsync(n model.Notification) error {
	// Caller bugs fail fast, before enqueueing.
	if err := validate(n); err != nil {
		return err
	}

	taskID := ulid.Make().String()
	task := func(ctx context.Context) error {
		ctx = logging.WithTaskID(ctx, taskID)
		ctx = logging.WithEntity(ctx, string(n.EntityType), n.EntityID)
		log := logging.With(ctx, uc.log)

		results, err := uc.Publish(ctx, n)
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Err != nil {
				log.Warn().Int64("chat_id", r.ChatID).Str("action", string(r.Action)).Err(r.Err).Msg("destination dispatch failed")
			}
		}
		return nil
	}

	if err := uc.tasks.Enqueue(task); err != nil {
		return fmt.Errorf("enqueue notification for %s %d: %w", n.EntityType, n.EntityID, err)
	}
	uc.log.Debug().Str("task_id", taskID).Str("kind", string(n.Kind)).Int64("entity_id", n.EntityID).Msg("notification queued")
	return nil
}

func (uc *notifyUC) HandleReply(ctx context.Context, chatID int64, messageID int, from, text string) error {
	row, err := uc.ledger.FindByMessage(ctx, repository.NoTX, chatID, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.log.Debug().Int64("chat_id", chatID).Int("message_id", messageID).Msg("reply to unknown message ignored")
			return nil
		}
		return fmt.Errorf("reverse lookup chat %d msg %d: %w", chatID, messageID, err)
	}

	ownerChat, err := uc.owners.OwnerChatID(ctx, repository.NoTX, row.EntityType, row.EntityID)
	if err != nil {
		return fmt.Errorf("owner lookup for %s %d: %w", row.EntityType, row.EntityID, err)
	}

	_, err = uc.messenger.SendText(ctx, model.Destination{ChatID: ownerChat}, format.ReplyForward(from, text))
	return err
}

// dispatchOne performs the action for a single destination. Every failure is
// captured in the result so one destination never aborts its siblings.
func (uc *notifyUC) dispatchOne(ctx context.Context, n model.Notification, dst model.Destination, rows []*model.OutboundMessage, text string) model.DispatchResult {
	intent := decideIntent(n.Kind, rows, text)
	res := model.DispatchResult{ChatID: dst.ChatID, Action: intent}

	switch intent {
	case model.IntentKeep:
		res.OK = true
	case model.IntentSkip:
		res.OK = true
		res.Skipped = true
	case model.IntentCreate:
		res.Err = uc.create(ctx, n, dst, text)
	case model.IntentEditText, model.IntentEditCaption:
		res.Err = uc.edit(ctx, n, dst, rows, text, intent)
	case model.IntentDeleteThenCreate:
		res.Err = uc.repost(ctx, n, dst, rows, text)
	}

	if res.Err != nil {
		uc.log.Warn().Err(res.Err).Int64("chat_id", dst.ChatID).Str("action", string(intent)).Msg("destination dispatch failed")
	} else {
		res.OK = true
	}
	return res
}

// decideIntent derives the per-destination action from the ledger state.
// The formatted text is the comparison key for skip-unchanged; it is
// deterministic, so byte equality means nothing changed.
func decideIntent(kind model.UpdateKind, rows []*model.OutboundMessage, text string) model.Intent {
	if kind == model.KindKeep {
		return model.IntentKeep
	}
	if len(rows) == 0 {
		// Also covers a destination newly added to the selection.
		return model.IntentCreate
	}
	if kind == model.KindRepost {
		return model.IntentDeleteThenCreate
	}
	// create on an already-published chat behaves like update_text
	primary := model.Primary(rows)
	if primary.Caption == text {
		return model.IntentSkip
	}
	if primary.IsMedia {
		return model.IntentEditCaption
	}
	return model.IntentEditText
}

func (uc *notifyUC) create(ctx context.Context, n model.Notification, dst model.Destination, text string) error {
	var (
		refs    []model.MessageRef
		isMedia bool
	)
	if len(n.PhotoURLs) > 0 {
		photos := n.PhotoURLs
		if len(photos) > uc.maxPhotos {
			photos = photos[:uc.maxPhotos]
		}
		sent, err := uc.messenger.SendPhotoGroup(ctx, dst, text, photos)
		if err != nil {
			return err
		}
		refs = sent
		isMedia = true
	} else {
		ref, err := uc.messenger.SendText(ctx, dst, text)
		if err != nil {
			return err
		}
		refs = []model.MessageRef{ref}
	}

	// An album produces several rows; record them in one transaction so a
	// partial ledger never maps a media group.
	rows := model.BuildLedgerRows(n.EntityType, n.EntityID, dst, refs, text, n.Price, isMedia)
	err := uc.txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return uc.ledger.RecordSend(ctx, tx, rows)
	})
	if err != nil {
		return fmt.Errorf("record send: %w", err)
	}
	return nil
}

func (uc *notifyUC) edit(ctx context.Context, n model.Notification, dst model.Destination, rows []*model.OutboundMessage, text string, intent model.Intent) error {
	primary := model.Primary(rows)

	var err error
	if intent == model.IntentEditCaption {
		err = uc.messenger.EditCaption(ctx, dst, primary.MessageID, text)
	} else {
		err = uc.messenger.EditText(ctx, dst, primary.MessageID, text)
	}
	if err != nil {
		return err
	}

	if err := uc.ledger.UpdateCaption(ctx, repository.NoTX, n.EntityType, n.EntityID, dst.ChatID, text, n.Price); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.log.Warn().Int64("chat_id", dst.ChatID).Int64("entity_id", n.EntityID).Msg("no ledger row to update after edit")
			return nil
		}
		return fmt.Errorf("update ledger caption: %w", err)
	}
	return nil
}

// repost deletes every existing message for the (entity, chat) pair and
// sends fresh ones. Required when the image set changed: captions can be
// edited in place, photo sets cannot.
func (uc *notifyUC) repost(ctx context.Context, n model.Notification, dst model.Destination, rows []*model.OutboundMessage, text string) error {
	for _, row := range rows {
		if err := uc.messenger.DeleteMessage(ctx, dst, row.MessageID); err != nil {
			uc.log.Warn().Err(err).Int64("chat_id", dst.ChatID).Int("message_id", row.MessageID).Msg("repost: delete failed")
		}
	}
	if err := uc.ledger.DeleteByEntityAndChat(ctx, repository.NoTX, n.EntityType, n.EntityID, dst.ChatID); err != nil {
		return fmt.Errorf("clear ledger before repost: %w", err)
	}
	return uc.create(ctx, n, dst, text)
}

// deleteEverywhere removes the entity's messages in every chat the ledger
// knows about, selection regardless. Ledger rows go even when the remote
// delete fails: the message may already be gone, and the ledger must not
// keep stale references.
func (uc *notifyUC) deleteEverywhere(ctx context.Context, n model.Notification, byChat map[int64][]*model.OutboundMessage) []model.DispatchResult {
	results := make([]model.DispatchResult, 0, len(byChat))
	for chatID, rows := range byChat {
		res := uc.deleteForChat(ctx, n, chatID, rows)
		metrics.IncDispatchAction(string(res.Action), res.OK)
		results = append(results, res)
	}
	return results
}

func (uc *notifyUC) deleteForChat(ctx context.Context, n model.Notification, chatID int64, rows []*model.OutboundMessage) model.DispatchResult {
	res := model.DispatchResult{ChatID: chatID, Action: model.IntentDelete}
	dst := model.Destination{ChatID: chatID}
	for _, row := range rows {
		if err := uc.messenger.DeleteMessage(ctx, dst, row.MessageID); err != nil {
			uc.log.Warn().Err(err).Int64("chat_id", chatID).Int("message_id", row.MessageID).Msg("delete message failed")
		}
	}
	if err := uc.ledger.DeleteByEntityAndChat(ctx, repository.NoTX, n.EntityType, n.EntityID, chatID); err != nil {
		res.Err = err
		uc.log.Error().Err(err).Int64("chat_id", chatID).Msg("delete ledger rows failed")
		return res
	}
	res.OK = true
	return res
}

func validate(n model.Notification) error {
	if n.EntityType != model.EntityAd && n.EntityType != model.EntityPost {
		return fmt.Errorf("%w: entity type %q", domain.ErrInvalidArgument, n.EntityType)
	}
	if n.EntityID == 0 {
		return fmt.Errorf("%w: entity id is required", domain.ErrInvalidArgument)
	}
	switch n.Kind {
	case model.KindCreate, model.KindUpdateText, model.KindRepost:
		if n.Title == "" {
			return domain.ErrMissingTitle
		}
	case model.KindKeep, model.KindDelete:
	default:
		return fmt.Errorf("%w: update kind %q", domain.ErrInvalidArgument, n.Kind)
	}
	return nil
}

func groupByChat(rows []*model.OutboundMessage) map[int64][]*model.OutboundMessage {
	byChat := make(map[int64][]*model.OutboundMessage, len(rows))
	for _, row := range rows {
		byChat[row.ChatID] = append(byChat[row.ChatID], row)
	}
	return byChat
}
