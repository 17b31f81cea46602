package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wochenmarkt/ingestor/src/utils/model"
	"github.com/wochenmarkt/ingestor/src/utils/whatsapp"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/atomic"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB() (db *gorm.DB, err error) {
	db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return
	}

	// Every connection would get its own in-memory database
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.Market{},
		&model.ImageLibraryEntry{},
		&model.Offer{},
		&model.PendingSubmission{},
	)
	return
}

type testClock struct {
	mtx sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 17, 8, 0, 0, 0, time.UTC)}
}

func (self *testClock) Now() time.Time {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.now
}

func (self *testClock) Advance(d time.Duration) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.now = self.now.Add(d)
}

type fakeModel struct {
	mtx      sync.Mutex
	calls    atomic.Int32
	delay    time.Duration
	response string
	err      error
	inputs   [][]*schema.Message
}

func (self *fakeModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	self.calls.Inc()

	self.mtx.Lock()
	self.inputs = append(self.inputs, input)
	response, err := self.response, self.err
	self.mtx.Unlock()

	if self.delay > 0 {
		time.Sleep(self.delay)
	}
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(response, nil), nil
}

func (self *fakeModel) lastInput() []*schema.Message {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if len(self.inputs) == 0 {
		return nil
	}
	return self.inputs[len(self.inputs)-1]
}

type sentText struct {
	To   string
	Body string
}

type fakeSender struct {
	mtx  sync.Mutex
	sent []sentText
	err  error
}

func (self *fakeSender) SendText(ctx context.Context, to, body string) (*whatsapp.SendMessageResponse, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.err != nil {
		return nil, self.err
	}
	self.sent = append(self.sent, sentText{To: to, Body: body})
	return &whatsapp.SendMessageResponse{MessagingProduct: "whatsapp"}, nil
}

func (self *fakeSender) messages() []sentText {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return append([]sentText(nil), self.sent...)
}

type fakeMedia struct {
	calls atomic.Int32
	media map[string]*whatsapp.Media
}

func (self *fakeMedia) FetchMedia(ctx context.Context, mediaId string) (*whatsapp.Media, error) {
	self.calls.Inc()
	media, ok := self.media[mediaId]
	if !ok {
		return nil, errors.New("media not found")
	}
	return media, nil
}

type fakeUploader struct {
	calls atomic.Int32
	err   error
	keys  []string
	mtx   sync.Mutex
}

func (self *fakeUploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	self.calls.Inc()
	if self.err != nil {
		return "", self.err
	}
	self.mtx.Lock()
	self.keys = append(self.keys, key)
	self.mtx.Unlock()
	return "https://cdn.example.com/" + key, nil
}
