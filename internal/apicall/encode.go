package apicall

import (
	"fmt"
	"io"
)

// ContentType returns the multipart/form-data content type header value for
// a stream encoded with the given boundary.
func ContentType(boundary string) string {
	return "multipart/form-data; boundary=" + boundary
}

// Encode produces the multipart/form-data stream for a call. Parts appear in
// a fixed order that is a contract with the Telegram server: the method part
// first, then text fields in insertion order, then binary attachments in
// insertion order, then the terminating boundary line.
//
// The stream is produced lazily through a pipe so arbitrarily large
// attachments are never buffered in full; the consumer drives pacing.
// Closing the returned reader before the stream completes releases the
// producer and closes any open attachment readers. If a part cannot be
// produced the stream ends with that error instead of a terminator, so a
// failed encoding is never mistaken for a complete message.
func Encode(c *Call, boundary string) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(writeCall(pw, c, boundary))
	}()
	return pr
}

func writeCall(w io.Writer, c *Call, boundary string) error {
	// Release every attachment reader on exit. Serialization may stop before
	// a File field is ever reached (the consumer can abandon the stream
	// while the producer is blocked writing an earlier part), so the cleanup
	// walks the call's fields rather than only the attachments that made it
	// into the sink.
	defer func() {
		for _, f := range c.Fields() {
			if file, ok := f.Value.(File); ok {
				if cl, ok := file.Reader.(io.Closer); ok {
					_ = cl.Close()
				}
			}
		}
	}()

	var sink attachmentSink

	if err := writeTextPart(w, boundary, "method", c.Method); err != nil {
		return err
	}

	for _, f := range c.Fields() {
		text, ok, err := prepare(f.Name, f.Value, &sink)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := writeTextPart(w, boundary, f.Name, text); err != nil {
			return err
		}
	}

	for _, name := range sink.names {
		if err := writeFilePart(w, boundary, name, sink.files[name]); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "--%s--\r\n", boundary)
	return err
}

func writeTextPart(w io.Writer, boundary, name, content string) error {
	_, err := fmt.Fprintf(w,
		"--%s\r\nContent-Disposition: form-data; name=%q\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		boundary, name, content)
	return err
}

func writeFilePart(w io.Writer, boundary, name string, f File) error {
	filename := f.Filename
	if filename == "" {
		filename = name
	}

	_, err := fmt.Fprintf(w,
		"--%s\r\nContent-Disposition: form-data; name=%q; filename=%q\r\nContent-Type: application/octet-stream\r\n\r\n",
		boundary, name, filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f.Reader); err != nil {
		return fmt.Errorf("read attachment %q: %w", name, err)
	}
	_, err = io.WriteString(w, "\r\n")
	return err
}
