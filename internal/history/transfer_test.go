package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pocketgram/core/internal/bus"
	"github.com/pocketgram/core/internal/tg"
)

func documentPayload(peer *tg.PeerRecord, id int32, name string) *tg.HistoryPayload {
	return &tg.HistoryPayload{
		Messages: []*tg.Message{{
			ID: id, PeerID: peer.Ref, Date: 1000,
			FromID: tg.PeerRef{Kind: tg.PeerUser, ID: 5},
			Media: &tg.Media{Kind: tg.MediaDocument, Document: &tg.Document{
				ID: 99, Size: 10,
				Attributes: []tg.DocAttr{{Kind: tg.DocAttrFilename, FileName: name}},
			}},
		}},
	}
}

func TestDownloadFile(t *testing.T) {
	e, client, b := testEngine(t, 40)
	e.downloadsRoot = t.TempDir()

	peer := chatPeer(7, 100)
	e.SetPeer(peer)
	client.Emit(tg.HistoryEvent{
		Payload:   documentPayload(peer, 101, "notes.txt"),
		RequestID: client.HistoryFetches[1].RequestID,
	})

	ch, unsub := b.Subscribe("history.download", 10)
	defer unsub()

	e.DownloadFile(0)

	if len(client.Downloads) != 1 {
		t.Fatal("download not started")
	}
	dest := client.Downloads[0].Dest
	if filepath.Base(dest) != "notes.txt" {
		t.Errorf("dest = %q", dest)
	}
	if client.Downloads[0].Ref.Document == nil {
		t.Error("download ref should carry the document")
	}

	// Drain the cancel echo and the started signal.
	var states []int
	for len(ch) > 0 {
		evt := <-ch
		states = append(states, evt.Payload.(bus.DownloadState).State)
	}
	if states[len(states)-1] != 0 {
		t.Errorf("last state = %d, want 0 (started)", states[len(states)-1])
	}

	client.Emit(tg.FileDownloadedEvent{RequestID: client.Downloads[0].RequestID, Path: dest})

	select {
	case evt := <-ch:
		done := evt.Payload.(bus.DownloadState)
		if done.State != 1 || done.Path != "file://"+dest {
			t.Errorf("done state = %+v", done)
		}
		if done.MessageID != 101 {
			t.Errorf("message id = %d", done.MessageID)
		}
	default:
		t.Fatal("no completion event")
	}
}

func TestDownloadFileUniqueNaming(t *testing.T) {
	e, client, _ := testEngine(t, 40)
	e.downloadsRoot = t.TempDir()

	dir := filepath.Join(e.downloadsRoot, downloadsSubdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", "notes (1).txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	peer := chatPeer(7, 100)
	e.SetPeer(peer)
	client.Emit(tg.HistoryEvent{
		Payload:   documentPayload(peer, 101, "notes.txt"),
		RequestID: client.HistoryFetches[1].RequestID,
	})

	e.DownloadFile(0)

	if got := filepath.Base(client.Downloads[0].Dest); got != "notes (2).txt" {
		t.Errorf("dest = %q, want notes (2).txt", got)
	}
}

func TestCancelDownload(t *testing.T) {
	e, client, b := testEngine(t, 40)
	e.downloadsRoot = t.TempDir()

	peer := chatPeer(7, 100)
	e.SetPeer(peer)
	client.Emit(tg.HistoryEvent{
		Payload:   documentPayload(peer, 101, "notes.txt"),
		RequestID: client.HistoryFetches[1].RequestID,
	})

	e.DownloadFile(0)
	reqID := client.Downloads[0].RequestID

	ch, unsub := b.Subscribe("history.download", 10)
	defer unsub()

	e.CancelDownload(0)
	if len(client.DownloadCancels) != 1 || client.DownloadCancels[0] != reqID {
		t.Errorf("cancel calls = %v", client.DownloadCancels)
	}

	select {
	case evt := <-ch:
		if got := evt.Payload.(bus.DownloadState); got.State != -1 {
			t.Errorf("cancel state = %d", got.State)
		}
	default:
		t.Error("no cancel event")
	}

	// A late completion for the canceled correlation is dropped.
	client.Emit(tg.FileDownloadedEvent{RequestID: reqID, Path: "/nope"})
	select {
	case evt := <-ch:
		t.Errorf("unexpected event after cancel: %v", evt)
	default:
	}
}

func TestUploadFlow(t *testing.T) {
	e, client, b := testEngine(t, 40)

	peer := chatPeer(7, 100)
	e.SetPeer(peer)

	ch, unsub := b.Subscribe("history.upload_progress", 20)
	defer unsub()

	e.UploadFile("/tmp/photo.jpg")
	if len(client.Uploads) != 1 {
		t.Fatal("upload not started")
	}
	uploadID := client.Uploads[0].UploadID

	// While the slot is busy, sending is a no-op.
	e.SendMessage("too early")
	if len(client.SentMessages) != 0 {
		t.Error("send during upload should be suppressed")
	}

	client.Emit(tg.UploadProgressEvent{UploadID: uploadID, Percent: 40})
	client.Emit(tg.UploadProgressEvent{UploadID: 999, Percent: 90})
	client.Emit(tg.UploadedEvent{UploadID: uploadID, File: &tg.InputFile{ID: 1, Name: "photo.jpg"}})

	var percents []int32
	for len(ch) > 0 {
		evt := <-ch
		percents = append(percents, evt.Payload.(int32))
	}
	want := []int32{-1, 0, 40, 100}
	if len(percents) != len(want) {
		t.Fatalf("progress = %v, want %v", percents, want)
	}
	for i := range want {
		if percents[i] != want[i] {
			t.Fatalf("progress = %v, want %v", percents, want)
		}
	}

	e.SendMessage("with photo")
	if len(client.SentMessages) != 1 {
		t.Fatal("send after upload failed")
	}
	sent := client.SentMessages[0]
	if sent.Media == nil || sent.Media.Kind != tg.InputMediaPhoto || sent.Media.File == nil {
		t.Errorf("sent media = %+v", sent.Media)
	}

	// The media slot is cleared after sending.
	e.SendMessage("")
	if len(client.SentMessages) != 1 {
		t.Error("empty send after media cleared should be a no-op")
	}
}

func TestUploadReplacesPrevious(t *testing.T) {
	e, client, _ := testEngine(t, 40)

	peer := chatPeer(7, 100)
	e.SetPeer(peer)

	e.UploadFile("/tmp/a.bin")
	first := client.Uploads[0].UploadID
	e.UploadFile("/tmp/b.bin")

	if len(client.UploadCancels) != 1 || client.UploadCancels[0] != first {
		t.Errorf("upload cancels = %v", client.UploadCancels)
	}
	if len(client.Uploads) != 2 {
		t.Errorf("got %d uploads, want 2", len(client.Uploads))
	}
}

func TestUploadDocumentAttributes(t *testing.T) {
	e, client, _ := testEngine(t, 40)

	peer := chatPeer(7, 100)
	e.SetPeer(peer)

	e.UploadFile("/tmp/report.pdf")
	client.Emit(tg.UploadedEvent{UploadID: client.Uploads[0].UploadID, File: &tg.InputFile{ID: 2}})

	e.SendMessage("doc")
	sent := client.SentMessages[0]
	if sent.Media.Kind != tg.InputMediaDocument {
		t.Errorf("media kind = %d", sent.Media.Kind)
	}
	if len(sent.Media.Attributes) != 1 || sent.Media.Attributes[0].FileName != "report.pdf" {
		t.Errorf("attributes = %+v", sent.Media.Attributes)
	}
}
