package vision

import (
	"encoding/base64"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Image passed inline to the model
type Image struct {
	MimeType string
	Data     []byte
}

func (self *Image) DataUrl() string {
	mimeType := self.MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(self.Data)
}

// System and user message pair, user message carries the image when present
func NewMessages(system, user string, image *Image) []*schema.Message {
	messages := []*schema.Message{schema.SystemMessage(system)}

	if image == nil || len(image.Data) == 0 {
		return append(messages, schema.UserMessage(user))
	}

	return append(messages, &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{
				Type: schema.ChatMessagePartTypeText,
				Text: user,
			},
			{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:    image.DataUrl(),
					Detail: schema.ImageURLDetailAuto,
				},
			},
		},
	})
}

// Removes markdown code fences wrapping the model answer
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop the language tag, e.g. ```json
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "" || !strings.ContainsAny(first, "{}[]\"") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
