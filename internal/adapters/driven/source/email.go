package source

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/custodia-labs/taxonomist/internal/core/domain"
)

// emailText renders an RFC 822 message as its headers followed by the body.
// Plain text parts are preferred over HTML parts.
func emailText(data []byte) (string, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: not an email message: %w", domain.ErrInvalidInput, err)
	}

	body, err := emailBody(msg.Header.Get("Content-Type"), msg.Body)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, h := range []string{"From", "To", "Date", "Subject"} {
		if v := decodeHeader(msg.Header.Get(h)); v != "" {
			fmt.Fprintf(&b, "%s: %s\n", h, v)
		}
	}
	b.WriteString("\n")
	b.WriteString(body)
	return strings.TrimSpace(b.String()), nil
}

func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

func emailBody(contentType string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		return multipartBody(r, params["boundary"]), nil
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read email body: %w", err)
	}
	if mediaType == "text/html" {
		return stripHTML(string(body)), nil
	}
	return strings.TrimSpace(string(body)), nil
}

func multipartBody(r io.Reader, boundary string) string {
	if boundary == "" {
		return ""
	}

	var plain, rich []string
	mr := multipart.NewReader(r, boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		mediaType, params, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			mediaType = "application/octet-stream"
		}
		content, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			continue
		}

		switch {
		case mediaType == "text/plain":
			plain = append(plain, strings.TrimSpace(string(content)))
		case mediaType == "text/html":
			rich = append(rich, stripHTML(string(content)))
		case strings.HasPrefix(mediaType, "multipart/"):
			if nested := multipartBody(bytes.NewReader(content), params["boundary"]); nested != "" {
				plain = append(plain, nested)
			}
		}
	}

	if len(plain) > 0 {
		return strings.Join(plain, "\n")
	}
	return strings.Join(rich, "\n")
}
