package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-delivery/internal/broker"
)

type BrokerMock struct {
	mock.Mock
}

func (m *BrokerMock) Publish(ctx context.Context, topic string, body []byte) error {
	args := m.Called(ctx, topic, body)
	return args.Error(0)
}

func (m *BrokerMock) Subscribe(ctx context.Context, pattern string, handler broker.Handler) error {
	args := m.Called(ctx, pattern, handler)
	return args.Error(0)
}

func (m *BrokerMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ broker.Broker = (*BrokerMock)(nil)
