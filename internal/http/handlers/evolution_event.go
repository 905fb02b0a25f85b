package handlers

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const eventMessagesUpsert = "messages.upsert"

// evolutionEvent is the envelope the Evolution relay posts for every
// WhatsApp event.
type evolutionEvent struct {
	Event    string        `json:"event"`
	Instance string        `json:"instance"`
	Data     evolutionData `json:"data"`
}

type evolutionData struct {
	Key              evolutionKey     `json:"key"`
	MessageTimestamp unixSeconds      `json:"messageTimestamp"`
	Message          evolutionMessage `json:"message"`
}

type evolutionKey struct {
	RemoteJID string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

type evolutionMessage struct {
	Conversation        string `json:"conversation"`
	ExtendedTextMessage struct {
		Text string `json:"text"`
	} `json:"extendedTextMessage"`
}

// Text returns the plain or extended text body, whichever is present.
func (m evolutionMessage) Text() string {
	if m.Conversation != "" {
		return m.Conversation
	}
	return m.ExtendedTextMessage.Text
}

// Sender is the phone number part of the remote JID.
func (k evolutionKey) Sender() string {
	number, _, _ := strings.Cut(k.RemoteJID, "@")
	return number
}

// unixSeconds accepts the timestamp as a JSON number or numeric string.
type unixSeconds int64

func (u *unixSeconds) UnmarshalJSON(b []byte) error {
	raw := string(bytes.Trim(b, `"`))
	if raw == "" || raw == "null" {
		*u = 0
		return nil
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*u = unixSeconds(v)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("messageTimestamp: %w", err)
	}
	*u = unixSeconds(int64(f))
	return nil
}

func (u unixSeconds) Time() time.Time {
	return time.Unix(int64(u), 0)
}
