package types

import (
	"fmt"
	"strings"
)

// MessageType selects the payload shape of an outbound message
type MessageType string

const (
	MessageTypeText         MessageType = "text"
	MessageTypeImage        MessageType = "image"
	MessageTypeAudio        MessageType = "audio"
	MessageTypeVideo        MessageType = "video"
	MessageTypeLikeHeart    MessageType = "like_heart"
	MessageTypeMediaShare   MessageType = "media_share"
	MessageTypeSenderAction MessageType = "sender_action"
)

// AllMessageTypes returns all valid message types
func AllMessageTypes() []MessageType {
	return []MessageType{
		MessageTypeText,
		MessageTypeImage,
		MessageTypeAudio,
		MessageTypeVideo,
		MessageTypeLikeHeart,
		MessageTypeMediaShare,
		MessageTypeSenderAction,
	}
}

// IsValid checks if the message type is valid
func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeText,
		MessageTypeImage,
		MessageTypeAudio,
		MessageTypeVideo,
		MessageTypeLikeHeart,
		MessageTypeMediaShare,
		MessageTypeSenderAction:
		return true
	default:
		return false
	}
}

// IsAttachment reports whether the type is sent as a URL attachment
func (t MessageType) IsAttachment() bool {
	switch t {
	case MessageTypeImage, MessageTypeAudio, MessageTypeVideo:
		return true
	default:
		return false
	}
}

// String returns the string representation of the message type
func (t MessageType) String() string {
	return string(t)
}

// ParseMessageType parses a string into a MessageType. Matching is case-insensitive.
func ParseMessageType(s string) (MessageType, error) {
	msgType := MessageType(strings.ToLower(strings.TrimSpace(s)))
	if !msgType.IsValid() {
		return "", fmt.Errorf("invalid message type: %s", s)
	}
	return msgType, nil
}
