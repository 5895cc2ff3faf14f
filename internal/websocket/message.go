package websocket

import (
	"encoding/json"

	"crisiswatch/internal/model"
)

// MessageType tags a server-to-client message.
type MessageType string

const (
	MessageTypeTweet                MessageType = "tweet"
	MessageTypeSentimentUpdate      MessageType = "sentimentUpdate"
	MessageTypeAlert                MessageType = "alert"
	MessageTypeTrendingTopicsUpdate MessageType = "trendingTopicsUpdate"
	MessageTypeDisasterUpdate       MessageType = "disasterUpdate"
	MessageTypeKeywordUpdate        MessageType = "keywordUpdate"
)

// Message is the wire envelope sent to clients.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event is the closed set of outbound event kinds. Each variant knows its
// wire type and payload, so every fan-out site handles the full set.
type Event interface {
	MessageType() MessageType
	eventPayload() any
}

// TweetEvent carries a single stored tweet.
type TweetEvent struct {
	Tweet model.Tweet
}

func (e TweetEvent) MessageType() MessageType { return MessageTypeTweet }
func (e TweetEvent) eventPayload() any        { return e.Tweet }

// SentimentEvent carries the periodic combined and per-location sentiment
// snapshot.
type SentimentEvent struct {
	Snapshot model.SentimentSnapshot
}

func (e SentimentEvent) MessageType() MessageType { return MessageTypeSentimentUpdate }
func (e SentimentEvent) eventPayload() any        { return e.Snapshot }

// AlertEvent carries a single alert.
type AlertEvent struct {
	Alert model.Alert
}

func (e AlertEvent) MessageType() MessageType { return MessageTypeAlert }
func (e AlertEvent) eventPayload() any        { return e.Alert }

// AlertListEvent carries the full alert list, used for the subscribe-time
// snapshot replay.
type AlertListEvent struct {
	Alerts []model.Alert
}

func (e AlertListEvent) MessageType() MessageType { return MessageTypeAlert }
func (e AlertListEvent) eventPayload() any {
	if e.Alerts == nil {
		return []model.Alert{}
	}
	return e.Alerts
}

// TrendingTopicsEvent carries the full trending topic list for a disaster.
type TrendingTopicsEvent struct {
	Topics []model.TrendingTopic
}

func (e TrendingTopicsEvent) MessageType() MessageType { return MessageTypeTrendingTopicsUpdate }
func (e TrendingTopicsEvent) eventPayload() any {
	if e.Topics == nil {
		return []model.TrendingTopic{}
	}
	return e.Topics
}

// DisasterEvent carries disaster metadata.
type DisasterEvent struct {
	Disaster model.Disaster
}

func (e DisasterEvent) MessageType() MessageType { return MessageTypeDisasterUpdate }
func (e DisasterEvent) eventPayload() any        { return e.Disaster }

// KeywordsEvent carries the active keyword list for a disaster.
type KeywordsEvent struct {
	Keywords []model.Keyword
}

func (e KeywordsEvent) MessageType() MessageType { return MessageTypeKeywordUpdate }
func (e KeywordsEvent) eventPayload() any {
	if e.Keywords == nil {
		return []model.Keyword{}
	}
	return e.Keywords
}

// EncodeEvent marshals an event into its wire envelope.
func EncodeEvent(e Event) ([]byte, error) {
	payload, err := json.Marshal(e.eventPayload())
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: e.MessageType(), Payload: payload})
}

// subscribeAction is the only inbound client action.
const subscribeAction = "subscribeToDisaster"

// inboundMessage is a client-to-server request on the socket.
type inboundMessage struct {
	Action     string `json:"action"`
	DisasterID int    `json:"disasterId"`
}

// decodeInbound parses a client request, returning ErrInvalidMessage for
// malformed JSON, unknown actions or non-positive disaster ids.
func decodeInbound(data []byte) (inboundMessage, error) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return inboundMessage{}, ErrInvalidMessage
	}
	if msg.Action != subscribeAction || msg.DisasterID <= 0 {
		return inboundMessage{}, ErrInvalidMessage
	}
	return msg, nil
}
