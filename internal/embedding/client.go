package embedding

import (
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI-compatible client used for embedding and chat
// completion calls. One client serves both so the ingestion and query
// sides share connection state.
type Client struct {
	client *openai.Client
}

// NewClient creates a client against api.openai.com or, when baseURL is
// non-empty, any OpenAI-compatible endpoint (a local vLLM server, for
// example). It reads OPENAI_API_KEY from the environment and returns an
// error if not set.
func NewClient(baseURL string) (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)
	return &Client{client: &client}, nil
}

// Client returns the underlying OpenAI client for use in other packages
// (answer generation).
func (c *Client) Client() *openai.Client {
	return c.client
}
