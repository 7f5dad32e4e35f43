package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"chat-delivery/internal/auth"
	"chat-delivery/internal/directory"
	"chat-delivery/internal/models"
	"chat-delivery/internal/repositories"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) FindByUsers(ctx context.Context, userID, otherID int64) (models.Conversation, error) {
	args := m.Called(ctx, userID, otherID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) CreateOrGet(ctx context.Context, userID, otherID int64) (models.Conversation, error) {
	args := m.Called(ctx, userID, otherID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) Get(ctx context.Context, conversationID int64) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) UpdateLastMessage(ctx context.Context, conversationID int64, preview string, at time.Time, recipientID int64) error {
	args := m.Called(ctx, conversationID, preview, at, recipientID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) MarkRead(ctx context.Context, conversationID, readerID int64) (bool, error) {
	args := m.Called(ctx, conversationID, readerID)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID int64) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) Delete(ctx context.Context, conversationID, userID int64) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Save(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, messageID int64) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListByConversation(ctx context.Context, conversationID int64) ([]models.Message, error) {
	args := m.Called(ctx, conversationID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) ListBetween(ctx context.Context, userID, otherID int64, page, size int) ([]models.Message, error) {
	args := m.Called(ctx, userID, otherID, page, size)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkRead(ctx context.Context, messageID int64) (bool, error) {
	args := m.Called(ctx, messageID)
	return args.Bool(0), args.Error(1)
}

func (m *MessageRepositoryMock) MarkAllRead(ctx context.Context, conversationID, receiverID int64) (int64, error) {
	args := m.Called(ctx, conversationID, receiverID)
	return args.Get(0).(int64), args.Error(1)
}

type UserDirectoryMock struct {
	mock.Mock
}

func (m *UserDirectoryMock) Exists(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *UserDirectoryMock) DisplayInfo(ctx context.Context, userID int64) (directory.DisplayInfo, error) {
	args := m.Called(ctx, userID)
	var info directory.DisplayInfo
	if val := args.Get(0); val != nil {
		info = val.(directory.DisplayInfo)
	}
	return info, args.Error(1)
}

func (m *UserDirectoryMock) BulkDisplayInfo(ctx context.Context, userIDs []int64) (map[int64]directory.DisplayInfo, error) {
	args := m.Called(ctx, userIDs)
	var infos map[int64]directory.DisplayInfo
	if val := args.Get(0); val != nil {
		infos = val.(map[int64]directory.DisplayInfo)
	}
	return infos, args.Error(1)
}

type TokenValidatorMock struct {
	mock.Mock
}

func (m *TokenValidatorMock) ValidateToken(ctx context.Context, token string) (int64, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Error(1)
}

type RelayPublisherMock struct {
	mock.Mock
}

func (m *RelayPublisherMock) Publish(ctx context.Context, msg models.Message) bool {
	args := m.Called(ctx, msg)
	return args.Bool(0)
}

var _ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ directory.UserDirectory = (*UserDirectoryMock)(nil)
var _ auth.TokenValidator = (*TokenValidatorMock)(nil)
