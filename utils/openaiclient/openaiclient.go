package openaiclient

import (
	"context"
	"time"

	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"
	"bitbucket.org/yellowmessenger/callcontrol-ari/ymlogger"
	openai "github.com/sashabaranov/go-openai"
)

// CompletionTimeout bounds one completion round trip
const CompletionTimeout = 10 * time.Second

var client *openai.Client

// Init initializes the completion client
func Init() {
	client = openai.NewClient(configmanager.ConfStore.OpenAIAPIKey)
}

// Message is one turn of a conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GetCompletion runs one chat completion over the conversation history.
// The request is cancelled if it does not finish within CompletionTimeout.
func GetCompletion(
	ctx context.Context,
	callID string,
	messages []Message,
) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, CompletionTimeout)
	defer cancel()

	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    message.Role,
			Content: message.Content,
		})
	}

	sTime := time.Now()
	resp, err := client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model:            configmanager.ConfStore.OpenAIModel,
		Messages:         chatMessages,
		Temperature:      0.7,
		MaxTokens:        150,
		PresencePenalty:  0.6,
		FrequencyPenalty: 0.3,
	})
	if err != nil {
		ymlogger.LogErrorf(callID, "Failed to get the completion. Error: [%#v]", err)
		return "", err
	}
	ymlogger.LogDebugf(callID, "Completion took [%d]ms", time.Since(sTime).Milliseconds())
	if len(resp.Choices) <= 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
