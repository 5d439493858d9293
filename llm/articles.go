package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"contentpilot/api/models"

	openai "github.com/sashabaranov/go-openai"
)

var client *openai.Client

const defaultWordCount = 1200

// Init creates the OpenAI client from OPENAI_API_KEY.
func Init() error {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	client = openai.NewClient(apiKey)
	return nil
}

// SetClient swaps the OpenAI client; tests point it at a stub server.
func SetClient(c *openai.Client) {
	client = c
}

const systemPrompt = `You are an expert SEO content writer. Write a complete blog article
optimized for the given keyword. Use markdown: one H1 title on the first line, H2 section
headings, short paragraphs, and a closing conclusion. Work the keyword naturally into the
title, the first paragraph and at least two headings. Do not mention that you are an AI.`

func buildUserPrompt(req models.GenerateRequest) string {
	tone := req.Tone
	if tone == "" {
		tone = "informative"
	}
	length := req.Length
	if length <= 0 {
		length = defaultWordCount
	}
	return fmt.Sprintf("Keyword: %q\nTone: %s\nTarget length: about %d words.", req.Keyword, tone, length)
}

func model() string {
	if m := os.Getenv("OPENAI_MODEL"); m != "" {
		return m
	}
	return openai.GPT4oMini
}

// GenerateArticle produces a full article in one completion call.
func GenerateArticle(ctx context.Context, req models.GenerateRequest) (title, content string, err error) {
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model(),
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(req)},
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("error generating article: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", "", fmt.Errorf("error generating article: empty completion")
	}

	content = resp.Choices[0].Message.Content
	return ExtractTitle(content, req.Keyword), content, nil
}

// StreamArticle streams the completion, invoking onChunk per delta, and
// returns the assembled article.
func StreamArticle(ctx context.Context, req models.GenerateRequest, onChunk func(chunk string)) (title, content string, err error) {
	stream, err := client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       model(),
		Temperature: 0.7,
		Stream:      true,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(req)},
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("error starting article stream: %w", err)
	}
	defer stream.Close()

	var builder strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", "", fmt.Errorf("error receiving article chunk: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		builder.WriteString(delta)
		if onChunk != nil {
			onChunk(delta)
		}
	}

	content = builder.String()
	return ExtractTitle(content, req.Keyword), content, nil
}

// ExtractTitle pulls the H1 off the first markdown line, falling back to a
// keyword-derived title.
func ExtractTitle(content, keyword string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
		break
	}
	words := strings.Fields(keyword)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// CountWords is a rough word count used for article metadata.
func CountWords(content string) int {
	return len(strings.Fields(content))
}
