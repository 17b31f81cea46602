package whatsapp

import (
	"context"
	"strings"

	"github.com/wochenmarkt/ingestor/src/utils/config"
)

type Client struct {
	*BaseClient
}

func NewClient(config *config.WhatsApp) (self *Client) {
	self = new(Client)
	self.BaseClient = newBaseClient(config)
	return
}

// Sends a plain text message
func (self *Client) SendText(ctx context.Context, to, body string) (out *SendMessageResponse, err error) {
	if self.config.PhoneNumberId == "" {
		err = ErrNotConfigured
		return
	}

	resp, err := self.client.R().
		SetContext(ctx).
		SetBody(SendMessageRequest{
			MessagingProduct: "whatsapp",
			RecipientType:    "individual",
			To:               to,
			Type:             "text",
			Text:             TextContent{Body: body},
		}).
		SetResult(&SendMessageResponse{}).
		ForceContentType("application/json").
		Post("/" + self.config.PhoneNumberId + "/messages")
	if err != nil {
		return
	}

	out, ok := resp.Result().(*SendMessageResponse)
	if !ok {
		err = ErrFailedToParse
		return
	}
	return
}

// Resolves the short lived download url of a media id
func (self *Client) GetMediaUrl(ctx context.Context, mediaId string) (out *MediaUrlResponse, err error) {
	resp, err := self.client.R().
		SetContext(ctx).
		SetResult(&MediaUrlResponse{}).
		ForceContentType("application/json").
		Get("/" + mediaId)
	if err != nil {
		return
	}

	out, ok := resp.Result().(*MediaUrlResponse)
	if !ok || out.Url == "" {
		err = ErrFailedToParse
		return
	}
	return
}

// Downloads media bytes. The download url requires the same bearer token.
func (self *Client) FetchMedia(ctx context.Context, mediaId string) (out *Media, err error) {
	info, err := self.GetMediaUrl(ctx, mediaId)
	if err != nil {
		return
	}

	if self.config.MaxMediaSize > 0 && info.FileSize > self.config.MaxMediaSize {
		err = ErrMediaTooLarge
		return
	}

	resp, err := self.client.R().
		SetContext(ctx).
		Get(info.Url)
	if err != nil {
		return
	}

	data := resp.Body()
	if len(data) == 0 {
		err = ErrEmptyMedia
		return
	}
	if self.config.MaxMediaSize > 0 && int64(len(data)) > self.config.MaxMediaSize {
		err = ErrMediaTooLarge
		return
	}

	mimeType := info.MimeType
	if mimeType == "" {
		mimeType = resp.Header().Get("Content-Type")
	}
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}

	out = &Media{
		ID:       mediaId,
		MimeType: mimeType,
		Data:     data,
	}
	return
}
