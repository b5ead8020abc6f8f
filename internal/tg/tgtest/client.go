// Package tgtest provides an in-memory protocol client for engine tests. It
// records every outbound request and lets tests inject inbound events.
package tgtest

import (
	"sync"

	"github.com/pocketgram/core/internal/tg"
)

// DialogFetch records one FetchDialogs call.
type DialogFetch struct {
	Off   tg.DialogOffset
	Limit int32
}

// HistoryFetch records one FetchHistory call.
type HistoryFetch struct {
	Peer      *tg.PeerRecord
	OffsetID  int32
	AddOffset int32
	Limit     int32
	RequestID int64
}

// Download records one DownloadFile call.
type Download struct {
	Dest      string
	Ref       tg.FileRef
	RequestID int64
}

// Sent records one SendMessage call.
type Sent struct {
	Peer      *tg.PeerRecord
	Body      string
	Media     *tg.InputMedia
	RequestID int64
}

// Upload records one UploadFile call.
type Upload struct {
	Path     string
	UploadID int64
}

// Client is a recording fake of tg.Client.
type Client struct {
	mu       sync.Mutex
	handlers map[int]func(tg.Event)
	nextSub  int
	nextReq  int64

	Auth   bool
	SelfID int64
	Dir    string

	DialogFetches   []DialogFetch
	FolderFetches   int
	HistoryFetches  []HistoryFetch
	Downloads       []Download
	DownloadCancels []int64
	SentMessages    []Sent
	Uploads         []Upload
	UploadCancels   []int64
}

// New creates an authorized fake client rooted at dir.
func New(dir string) *Client {
	return &Client{
		handlers: make(map[int]func(tg.Event)),
		Auth:     true,
		SelfID:   1,
		Dir:      dir,
	}
}

// Emit delivers an inbound event to all registered handlers.
func (c *Client) Emit(evt tg.Event) {
	c.mu.Lock()
	hs := make([]func(tg.Event), 0, len(c.handlers))
	for _, h := range c.handlers {
		hs = append(hs, h)
	}
	c.mu.Unlock()

	for _, h := range hs {
		h(evt)
	}
}

// LastRequestID returns the id of the most recent correlated request.
func (c *Client) LastRequestID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextReq
}

func (c *Client) nextRequestID() int64 {
	c.nextReq++
	return c.nextReq
}

func (c *Client) AddEventHandler(handler func(tg.Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.handlers[id] = handler
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.handlers, id)
	}
}

func (c *Client) Authorized() bool { return c.Auth }

func (c *Client) UserID() int64 { return c.SelfID }

func (c *Client) SessionDir() string { return c.Dir }

func (c *Client) FetchDialogs(off tg.DialogOffset, limit int32) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DialogFetches = append(c.DialogFetches, DialogFetch{Off: off, Limit: limit})
	return c.nextRequestID()
}

func (c *Client) FetchFolders() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.FolderFetches++
	return c.nextRequestID()
}

func (c *Client) FetchHistory(peer *tg.PeerRecord, offsetID, addOffset, limit int32) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextRequestID()
	c.HistoryFetches = append(c.HistoryFetches, HistoryFetch{
		Peer: peer, OffsetID: offsetID, AddOffset: addOffset, Limit: limit, RequestID: id,
	})
	return id
}

func (c *Client) DownloadFile(destPath string, ref tg.FileRef) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextRequestID()
	c.Downloads = append(c.Downloads, Download{Dest: destPath, Ref: ref, RequestID: id})
	return id
}

func (c *Client) CancelDownload(requestID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DownloadCancels = append(c.DownloadCancels, requestID)
}

func (c *Client) SendMessage(peer *tg.PeerRecord, body string, media *tg.InputMedia) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextRequestID()
	c.SentMessages = append(c.SentMessages, Sent{Peer: peer, Body: body, Media: media, RequestID: id})
	return id
}

func (c *Client) UploadFile(path string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextRequestID()
	c.Uploads = append(c.Uploads, Upload{Path: path, UploadID: id})
	return id
}

func (c *Client) CancelUpload(uploadID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.UploadCancels = append(c.UploadCancels, uploadID)
}
