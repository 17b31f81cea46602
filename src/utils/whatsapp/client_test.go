package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wochenmarkt/ingestor/src/utils/config"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

type ClientTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc
	server *httptest.Server
	client *Client

	sent []SendMessageRequest
}

func (s *ClientTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.sent = nil

	mux := http.NewServeMux()
	mux.HandleFunc("/PHONE/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer TOKEN" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.sent = append(s.sent, req)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.out"}]}`))
	})
	mux.HandleFunc("/MEDIA", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"` + s.server.URL + `/download/MEDIA","mime_type":"image/jpeg","file_size":4,"id":"MEDIA"}`))
	})
	mux.HandleFunc("/download/MEDIA", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer TOKEN" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
	})
	mux.HandleFunc("/BROKEN", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	s.server = httptest.NewServer(mux)

	s.client = NewClient(&config.WhatsApp{
		ApiUrl:           s.server.URL,
		PhoneNumberId:    "PHONE",
		AccessToken:      "TOKEN",
		RequestTimeout:   5 * time.Second,
		LimiterInterval:  time.Millisecond,
		LimiterBurstSize: 10,
		MaxMediaSize:     1024,
	})
}

func (s *ClientTestSuite) TearDownTest() {
	s.server.Close()
	s.cancel()
}

func (s *ClientTestSuite) TestSendText() {
	out, err := s.client.SendText(s.ctx, "491701234567", "Hallo")
	require.Nil(s.T(), err)
	require.Len(s.T(), out.Messages, 1)
	require.Equal(s.T(), "wamid.out", out.Messages[0].ID)

	require.Len(s.T(), s.sent, 1)
	require.Equal(s.T(), "491701234567", s.sent[0].To)
	require.Equal(s.T(), "text", s.sent[0].Type)
	require.Equal(s.T(), "Hallo", s.sent[0].Text.Body)
}

func (s *ClientTestSuite) TestFetchMedia() {
	media, err := s.client.FetchMedia(s.ctx, "MEDIA")
	require.Nil(s.T(), err)
	require.Equal(s.T(), "MEDIA", media.ID)
	require.Equal(s.T(), "image/jpeg", media.MimeType)
	require.Equal(s.T(), []byte{0xff, 0xd8, 0xff, 0xe0}, media.Data)
}

func (s *ClientTestSuite) TestFetchMediaTooLarge() {
	s.client.config.MaxMediaSize = 2
	_, err := s.client.FetchMedia(s.ctx, "MEDIA")
	require.ErrorIs(s.T(), err, ErrMediaTooLarge)
}

func (s *ClientTestSuite) TestStatusToError() {
	_, err := s.client.GetMediaUrl(s.ctx, "BROKEN")
	require.Error(s.T(), err)

	var statusErr *StatusError
	require.True(s.T(), errors.As(err, &statusErr))
	require.Equal(s.T(), http.StatusBadGateway, statusErr.StatusCode)
	require.True(s.T(), statusErr.IsTemporary())
}

func (s *ClientTestSuite) TestPayloadMessages() {
	var payload WebhookPayload
	err := json.Unmarshal([]byte(`{
		"object": "whatsapp_business_account",
		"entry": [{"id": "1", "changes": [{"field": "messages", "value": {
			"messaging_product": "whatsapp",
			"messages": [
				{"from": "4917", "id": "wamid.1", "type": "text", "text": {"body": "Tomaten 500g"}},
				{"from": "4917", "id": "wamid.2", "type": "image", "image": {"id": "MEDIA", "mime_type": "image/jpeg", "caption": "2.49€"}}
			]
		}}]}]
	}`), &payload)
	require.Nil(s.T(), err)

	messages := payload.Messages()
	require.Len(s.T(), messages, 2)
	require.Equal(s.T(), MessageTypeText, messages[0].Type)
	require.Equal(s.T(), "Tomaten 500g", messages[0].Text.Body)
	require.Equal(s.T(), MessageTypeImage, messages[1].Type)
	require.Equal(s.T(), "MEDIA", messages[1].Image.ID)
	require.Equal(s.T(), "2.49€", messages[1].Image.Caption)
}
