package mocks

import (
	"context"

	"inkwell-server/novel-service/internal/textgen"

	"github.com/stretchr/testify/mock"
)

// Mock Client
type Client struct {
	mock.Mock
}

func (m *Client) GenerateText(ctx context.Context, systemPrompt, userInput string, params textgen.Params) (string, textgen.Usage, error) {
	args := m.Called(ctx, systemPrompt, userInput, params)
	return args.String(0), args.Get(1).(textgen.Usage), args.Error(2)
}

func (m *Client) GenerateTextStream(ctx context.Context, systemPrompt, userInput string, params textgen.Params, chunkHandler func(string) error) (textgen.Usage, error) {
	args := m.Called(ctx, systemPrompt, userInput, params, chunkHandler)
	return args.Get(0).(textgen.Usage), args.Error(1)
}
