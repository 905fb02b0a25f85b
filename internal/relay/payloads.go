package relay

import (
	"errors"
	"strings"
)

type readMessage struct {
	RemoteJID string `json:"remoteJid"`
	ID        string `json:"id"`
	FromMe    bool   `json:"fromMe"`
}

type markReadRequest struct {
	ReadMessages []readMessage `json:"readMessages"`
}

type presenceRequest struct {
	Number   string `json:"number"`
	Presence string `json:"presence"`
	Delay    int64  `json:"delay"`
}

type textRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type mediaRequest struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	MimeType  string `json:"mimetype,omitempty"`
	Media     string `json:"media"`
	FileName  string `json:"fileName"`
	Caption   string `json:"caption,omitempty"`
}

// Document is an outbound file attachment.
type Document struct {
	Number   string
	Base64   string
	FileName string
	MimeType string
	Caption  string
}

func (d Document) validate() error {
	if strings.TrimSpace(d.Number) == "" {
		return errors.New("relay: document number required")
	}
	if d.Base64 == "" {
		return errors.New("relay: document payload required")
	}
	if strings.TrimSpace(d.FileName) == "" {
		return errors.New("relay: document file name required")
	}
	return nil
}

func (d Document) mimeType() string {
	if d.MimeType != "" {
		return d.MimeType
	}
	if strings.HasSuffix(strings.ToLower(d.FileName), ".pdf") {
		return "application/pdf"
	}
	return ""
}
