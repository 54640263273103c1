package memory

import (
	"github.com/secmon-lab/instaai/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	token   *tokenRepository
	message *messageRepository
	event   *eventRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		token:   newTokenRepository(),
		message: newMessageRepository(),
		event:   newEventRepository(),
	}
}

func (m *Memory) Token() interfaces.TokenRepository {
	return m.token
}

func (m *Memory) Message() interfaces.MessageRepository {
	return m.message
}

func (m *Memory) Event() interfaces.EventRepository {
	return m.event
}

func (m *Memory) Close() error {
	return nil
}
