package casesapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/aldeia/relatos-dashboard/entities"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// SubmitAudio uploads an audio recording as the multipart field `audio`.
// contentType is forwarded on the part so the upstream can pick a decoder.
func (c *Client) SubmitAudio(ctx context.Context, filename, contentType string, audio io.Reader) (*entities.CaseCreated, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="audio"; filename="%s"`, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio part: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	var out entities.CaseCreated
	if err := c.do(ctx, "submit_audio", http.MethodPost, "/api/relatos/audio",
		&buf, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
