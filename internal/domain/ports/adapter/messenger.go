// File: internal/domain/ports/adapter/messenger.go
package adapter

import (
	"context"

	"telegram-classifieds-notify/internal/domain/model"
)

// Messenger is the only gateway to the Telegram Bot API. Implementations
// must serialize calls and enforce the inter-call delay; callers never talk
// to the API directly.
//
// Ordinary remote failures come back as errors; DeleteMessage treats a
// remote "message not found" as success so deletes stay idempotent.
type Messenger interface {
	SendText(ctx context.Context, dst model.Destination, text string) (model.MessageRef, error)
	// SendPhotoGroup sends a single photo with caption when given one URL,
	// or a media group (caption on the first item only) for several.
	// It returns one ref per delivered message.
	SendPhotoGroup(ctx context.Context, dst model.Destination, caption string, photoURLs []string) ([]model.MessageRef, error)
	EditText(ctx context.Context, dst model.Destination, messageID int, text string) error
	EditCaption(ctx context.Context, dst model.Destination, messageID int, caption string) error
	EditMedia(ctx context.Context, dst model.Destination, messageID int, mediaURL, caption string) error
	DeleteMessage(ctx context.Context, dst model.Destination, messageID int) error
}
