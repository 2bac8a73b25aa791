//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-classifieds-notify/internal/domain"
	"telegram-classifieds-notify/internal/domain/model"
	"telegram-classifieds-notify/internal/domain/ports/adapter"
	"telegram-classifieds-notify/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func intPtr(v int) *int { return &v }

// =============================
// Adapters
// =============================

// ---- Mock Messenger ----

type sentText struct {
	Dst  model.Destination
	Text string
}

type sentGroup struct {
	Dst     model.Destination
	Caption string
	Photos  []string
}

type editCall struct {
	Dst       model.Destination
	MessageID int
	Text      string
}

type deleteCall struct {
	Dst       model.Destination
	MessageID int
}

// MockMessenger records every call and hands out sequential message ids.
// Individual methods can be overridden via the Func fields.
type MockMessenger struct {
	mu     sync.Mutex
	nextID int

	SentTexts    []sentText
	SentGroups   []sentGroup
	TextEdits    []editCall
	CaptionEdits []editCall
	Deletes      []deleteCall

	SendTextFunc       func(ctx context.Context, dst model.Destination, text string) (model.MessageRef, error)
	SendPhotoGroupFunc func(ctx context.Context, dst model.Destination, caption string, photoURLs []string) ([]model.MessageRef, error)
	EditTextFunc       func(ctx context.Context, dst model.Destination, messageID int, text string) error
	EditCaptionFunc    func(ctx context.Context, dst model.Destination, messageID int, caption string) error
	DeleteMessageFunc  func(ctx context.Context, dst model.Destination, messageID int) error
}

var _ adapter.Messenger = (*MockMessenger)(nil)

func (m *MockMessenger) nextMessageID() int {
	m.nextID++
	return m.nextID + 1000
}

func (m *MockMessenger) SendText(ctx context.Context, dst model.Destination, text string) (model.MessageRef, error) {
	if m.SendTextFunc != nil {
		return m.SendTextFunc(ctx, dst, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentTexts = append(m.SentTexts, sentText{Dst: dst, Text: text})
	return model.MessageRef{MessageID: m.nextMessageID()}, nil
}

func (m *MockMessenger) SendPhotoGroup(ctx context.Context, dst model.Destination, caption string, photoURLs []string) ([]model.MessageRef, error) {
	if m.SendPhotoGroupFunc != nil {
		return m.SendPhotoGroupFunc(ctx, dst, caption, photoURLs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentGroups = append(m.SentGroups, sentGroup{Dst: dst, Caption: caption, Photos: photoURLs})
	groupID := ""
	if len(photoURLs) > 1 {
		groupID = "group-1"
	}
	refs := make([]model.MessageRef, 0, len(photoURLs))
	for range photoURLs {
		refs = append(refs, model.MessageRef{MessageID: m.nextMessageID(), MediaGroupID: groupID})
	}
	return refs, nil
}

func (m *MockMessenger) EditText(ctx context.Context, dst model.Destination, messageID int, text string) error {
	if m.EditTextFunc != nil {
		return m.EditTextFunc(ctx, dst, messageID, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TextEdits = append(m.TextEdits, editCall{Dst: dst, MessageID: messageID, Text: text})
	return nil
}

func (m *MockMessenger) EditCaption(ctx context.Context, dst model.Destination, messageID int, caption string) error {
	if m.EditCaptionFunc != nil {
		return m.EditCaptionFunc(ctx, dst, messageID, caption)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CaptionEdits = append(m.CaptionEdits, editCall{Dst: dst, MessageID: messageID, Text: caption})
	return nil
}

func (m *MockMessenger) EditMedia(ctx context.Context, dst model.Destination, messageID int, mediaURL, caption string) error {
	return nil
}

func (m *MockMessenger) DeleteMessage(ctx context.Context, dst model.Destination, messageID int) error {
	if m.DeleteMessageFunc != nil {
		return m.DeleteMessageFunc(ctx, dst, messageID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes = append(m.Deletes, deleteCall{Dst: dst, MessageID: messageID})
	return nil
}

// =============================
// Repositories
// =============================

// ---- Mock OutboundMessageRepository ----

// MockLedger is an in-memory message ledger. Behavior can be overridden per
// method; the default implementations mutate the Rows slice.
type MockLedger struct {
	mu   sync.Mutex
	Rows []*model.OutboundMessage

	RecordSendFunc    func(ctx context.Context, tx repository.Tx, rows []*model.OutboundMessage) error
	UpdateCaptionFunc func(ctx context.Context, tx repository.Tx, et model.EntityType, entityID, chatID int64, caption string, price *int) error
	CountRowsFunc     func(ctx context.Context, tx repository.Tx) (int, error)
}

var _ repository.OutboundMessageRepository = (*MockLedger)(nil)

func NewMockLedger(rows ...*model.OutboundMessage) *MockLedger {
	return &MockLedger{Rows: rows}
}

func (m *MockLedger) RecordSend(ctx context.Context, tx repository.Tx, rows []*model.OutboundMessage) error {
	if m.RecordSendFunc != nil {
		return m.RecordSendFunc(ctx, tx, rows)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rows = append(m.Rows, rows...)
	return nil
}

func (m *MockLedger) FindByEntity(ctx context.Context, tx repository.Tx, et model.EntityType, entityID int64) ([]*model.OutboundMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.OutboundMessage
	for _, r := range m.Rows {
		if r.EntityType == et && r.EntityID == entityID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockLedger) FindByEntityAndChat(ctx context.Context, tx repository.Tx, et model.EntityType, entityID, chatID int64) ([]*model.OutboundMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.OutboundMessage
	for _, r := range m.Rows {
		if r.EntityType == et && r.EntityID == entityID && r.ChatID == chatID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockLedger) FindByMessage(ctx context.Context, tx repository.Tx, chatID int64, messageID int) (*model.OutboundMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Rows {
		if r.ChatID == chatID && r.MessageID == messageID {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockLedger) UpdateCaption(ctx context.Context, tx repository.Tx, et model.EntityType, entityID, chatID int64, caption string, price *int) error {
	if m.UpdateCaptionFunc != nil {
		return m.UpdateCaptionFunc(ctx, tx, et, entityID, chatID, caption, price)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Rows {
		if r.EntityType == et && r.EntityID == entityID && r.ChatID == chatID && r.Caption != "" {
			r.Caption = caption
			r.Price = price
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockLedger) DeleteByEntity(ctx context.Context, tx repository.Tx, et model.EntityType, entityID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Rows[:0]
	for _, r := range m.Rows {
		if !(r.EntityType == et && r.EntityID == entityID) {
			kept = append(kept, r)
		}
	}
	m.Rows = kept
	return nil
}

func (m *MockLedger) DeleteByEntityAndChat(ctx context.Context, tx repository.Tx, et model.EntityType, entityID, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.Rows[:0]
	for _, r := range m.Rows {
		if !(r.EntityType == et && r.EntityID == entityID && r.ChatID == chatID) {
			kept = append(kept, r)
		}
	}
	m.Rows = kept
	return nil
}

func (m *MockLedger) CountRows(ctx context.Context, tx repository.Tx) (int, error) {
	if m.CountRowsFunc != nil {
		return m.CountRowsFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Rows), nil
}

// ---- Mock OwnerLookup ----

type MockOwnerLookup struct {
	OwnerChatIDFunc func(ctx context.Context, tx repository.Tx, et model.EntityType, entityID int64) (int64, error)
}

var _ repository.OwnerLookup = (*MockOwnerLookup)(nil)

func (m *MockOwnerLookup) OwnerChatID(ctx context.Context, tx repository.Tx, et model.EntityType, entityID int64) (int64, error) {
	if m.OwnerChatIDFunc != nil {
		return m.OwnerChatIDFunc(ctx, tx, et, entityID)
	}
	return 0, domain.ErrNotFound
}

// ---- Mock DestinationRepository ----

type MockDestinationRepo struct {
	FindByKeyFunc  func(ctx context.Context, tx repository.Tx, key string) (*model.Destination, error)
	ListActiveFunc func(ctx context.Context, tx repository.Tx) ([]*model.Destination, error)
	SaveFunc       func(ctx context.Context, tx repository.Tx, d *model.Destination) error
}

var _ repository.DestinationRepository = (*MockDestinationRepo)(nil)

func (m *MockDestinationRepo) FindByKey(ctx context.Context, tx repository.Tx, key string) (*model.Destination, error) {
	if m.FindByKeyFunc != nil {
		return m.FindByKeyFunc(ctx, tx, key)
	}
	return nil, domain.ErrNotFound
}

func (m *MockDestinationRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Destination, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx, tx)
	}
	return nil, nil
}

func (m *MockDestinationRepo) Save(ctx context.Context, tx repository.Tx, d *model.Destination) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, d)
	}
	return nil
}

// ---- Mock TransactionManager ----

// MockTxManager runs the callback without a real transaction.
type MockTxManager struct {
	Calls int
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	return fn(ctx, repository.NoTX)
}
