// Package apicall_test tests the apicall encoding pipeline.
package apicall_test

import (
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/edgard/swarmbot/internal/apicall"
)

// decodedPart is the observable result of decoding one multipart part.
type decodedPart struct {
	name     string
	filename string
	content  string
}

// decodeStream runs a produced stream through the standard multipart parser.
func decodeStream(t *testing.T, r io.Reader, boundary string) []decodedPart {
	t.Helper()

	mr := multipart.NewReader(r, boundary)

	var parts []decodedPart
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("NextPart() error = %v", err)
		}
		data, err := io.ReadAll(p)
		if err != nil {
			t.Fatalf("ReadAll(part) error = %v", err)
		}
		parts = append(parts, decodedPart{
			name:     p.FormName(),
			filename: p.FileName(),
			content:  string(data),
		})
	}
	return parts
}

func TestEncodeTextFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		call *apicall.Call
		want []decodedPart
	}{
		{
			name: "method only",
			call: apicall.New("deleteWebhook"),
			want: []decodedPart{
				{name: "method", content: "deleteWebhook"},
			},
		},
		{
			name: "send message scenario",
			call: apicall.SendMessage(42, "Hello, create new minion with /add_minion <TOKEN>"),
			want: []decodedPart{
				{name: "method", content: "sendMessage"},
				{name: "chat_id", content: "42"},
				{name: "text", content: "Hello, create new minion with /add_minion <TOKEN>"},
			},
		},
		{
			name: "scalar variants in insertion order",
			call: apicall.New("sendMessage").
				Add("chat_id", apicall.Int(-100123)).
				Add("text", apicall.Text("ok")).
				Add("disable_notification", apicall.Bool(true)),
			want: []decodedPart{
				{name: "method", content: "sendMessage"},
				{name: "chat_id", content: "-100123"},
				{name: "text", content: "ok"},
				{name: "disable_notification", content: "true"},
			},
		},
		{
			name: "structured value rendered as compact JSON",
			call: apicall.New("sendMessage").
				Add("chat_id", apicall.Int(7)).
				Add("text", apicall.Text("pick one")).
				Add("reply_markup", apicall.JSON{V: map[string][]string{"keyboard": {"a", "b"}}}),
			want: []decodedPart{
				{name: "method", content: "sendMessage"},
				{name: "chat_id", content: "7"},
				{name: "text", content: "pick one"},
				{name: "reply_markup", content: `{"keyboard":["a","b"]}`},
			},
		},
		{
			name: "absent value omitted, empty string kept",
			call: apicall.New("sendMessage").
				Add("chat_id", apicall.Int(1)).
				Add("parse_mode", nil).
				Add("text", apicall.Text("")),
			want: []decodedPart{
				{name: "method", content: "sendMessage"},
				{name: "chat_id", content: "1"},
				{name: "text", content: ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			boundary := apicall.NewBoundary()
			stream := apicall.Encode(tt.call, boundary)
			defer stream.Close()

			got := decodeStream(t, stream, boundary)
			if len(got) != len(tt.want) {
				t.Fatalf("decoded %d parts, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, want := range tt.want {
				if got[i] != want {
					t.Errorf("part[%d] = %+v, want %+v", i, got[i], want)
				}
			}
		})
	}
}

func TestEncodeAttachments(t *testing.T) {
	t.Parallel()

	photo := strings.Repeat("\x00\x01\x02\xff", 64)
	thumb := "tiny"

	// Attachments are declared between text fields; they must still come
	// out after every text part, in their own insertion order.
	call := apicall.New("sendPhoto").
		Add("chat_id", apicall.Int(9)).
		Add("photo", apicall.File{Filename: "cat.jpg", Reader: strings.NewReader(photo)}).
		Add("caption", apicall.Text("a cat")).
		Add("thumbnail", apicall.File{Reader: strings.NewReader(thumb)})

	boundary := apicall.NewBoundary()
	stream := apicall.Encode(call, boundary)
	defer stream.Close()

	got := decodeStream(t, stream, boundary)
	want := []decodedPart{
		{name: "method", content: "sendPhoto"},
		{name: "chat_id", content: "9"},
		{name: "caption", content: "a cat"},
		{name: "photo", filename: "cat.jpg", content: photo},
		{name: "thumbnail", filename: "thumbnail", content: thumb},
	}
	if len(got) != len(want) {
		t.Fatalf("decoded %d parts, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("part[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestEncodeRawFraming(t *testing.T) {
	t.Parallel()

	call := apicall.New("sendMessage").Add("text", apicall.Text("hi"))
	stream := apicall.Encode(call, "B")
	defer stream.Close()

	raw, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	want := "--B\r\n" +
		"Content-Disposition: form-data; name=\"method\"\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\nsendMessage\r\n" +
		"--B\r\n" +
		"Content-Disposition: form-data; name=\"text\"\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\nhi\r\n" +
		"--B--\r\n"
	if string(raw) != want {
		t.Errorf("raw stream mismatch:\ngot:  %q\nwant: %q", raw, want)
	}
}

func TestNewBoundary(t *testing.T) {
	t.Parallel()

	a := apicall.NewBoundary()
	b := apicall.NewBoundary()

	if a == b {
		t.Errorf("NewBoundary() returned the same value twice: %q", a)
	}
	for _, boundary := range []string{a, b} {
		if !strings.HasPrefix(boundary, "webhookBoundary") {
			t.Errorf("NewBoundary() = %q, want webhookBoundary prefix", boundary)
		}
	}
}

// errReader fails after yielding a short prefix.
type errReader struct {
	prefix io.Reader
}

func (r *errReader) Read(p []byte) (int, error) {
	n, err := r.prefix.Read(p)
	if errors.Is(err, io.EOF) {
		return n, errors.New("attachment source gone")
	}
	return n, err
}

func TestEncodeFailureDoesNotTerminateStream(t *testing.T) {
	t.Parallel()

	call := apicall.New("sendDocument").
		Add("chat_id", apicall.Int(3)).
		Add("document", apicall.File{Filename: "x.bin", Reader: &errReader{prefix: strings.NewReader("partial")}})

	boundary := apicall.NewBoundary()
	stream := apicall.Encode(call, boundary)
	defer stream.Close()

	raw, err := io.ReadAll(stream)
	if err == nil {
		t.Fatal("ReadAll() succeeded, want attachment read error")
	}
	if strings.Contains(string(raw), "--"+boundary+"--") {
		t.Error("failed stream contains a terminating boundary; it must stop instead")
	}
}

// closeRecorder reports when its underlying reader is released.
type closeRecorder struct {
	io.Reader
	closed chan struct{}
}

func (c *closeRecorder) Close() error {
	close(c.closed)
	return nil
}

func TestEncodeAbandonedStreamReleasesAttachment(t *testing.T) {
	t.Parallel()

	rec := &closeRecorder{
		Reader: strings.NewReader(strings.Repeat("x", 1<<20)),
		closed: make(chan struct{}),
	}
	call := apicall.New("sendDocument").
		Add("chat_id", apicall.Int(5)).
		Add("document", apicall.File{Filename: "big.bin", Reader: rec})

	stream := apicall.Encode(call, apicall.NewBoundary())

	// Consume a little, then walk away mid-stream.
	if _, err := io.ReadFull(stream, make([]byte, 64)); err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case <-rec.closed:
	case <-time.After(5 * time.Second):
		t.Fatal("attachment reader was not released after the stream was abandoned")
	}
}
