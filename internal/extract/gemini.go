package extract

import (
    "context"
    "encoding/base64"
    "errors"
    "os"
    "strings"

    genai "google.golang.org/genai"
)

// GeminiClient extracts questions via the Google GenAI SDK. The client is
// created lazily on first use so a missing key only fails calls routed to
// this provider.
type GeminiClient struct {
    apiKey string
    client *genai.Client
}

func NewGeminiClient() *GeminiClient {
    key := os.Getenv("GEMINI_API_KEY")
    if key == "" {
        key = os.Getenv("GOOGLE_API_KEY")
    }
    return &GeminiClient{apiKey: key}
}

func (c *GeminiClient) Name() string { return "gemini" }

func (c *GeminiClient) Do(ctx context.Context, req Request) (Response, error) {
    if c.apiKey == "" {
        return Response{}, errors.New("missing GEMINI_API_KEY")
    }
    if c.client == nil {
        cl, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: c.apiKey})
        if err != nil {
            return Response{}, err
        }
        c.client = cl
    }

    system := req.SystemPrompt
    if system == "" {
        system = DefaultSystemPrompt
    }

    parts := []*genai.Part{{Text: system + "\n\n" + userPrompt(req)}}
    if req.ImageBase64 != "" {
        img, err := base64.StdEncoding.DecodeString(req.ImageBase64)
        if err != nil {
            return Response{}, err
        }
        mt := req.ImageMIME
        if mt == "" {
            mt = "image/jpeg"
        }
        parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: mt, Data: img}})
    }

    content := &genai.Content{Role: genai.RoleUser, Parts: parts}
    res, err := c.client.Models.GenerateContent(ctx, req.Model, []*genai.Content{content}, nil)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "resource_exhausted") ||
            strings.Contains(err.Error(), "429") {
            return Response{}, ErrRateLimited
        }
        return Response{}, err
    }

    text := res.Text()
    if text == "" {
        return Response{}, errors.New("empty response")
    }
    return Response{Items: ParseItems(text), RawText: text}, nil
}
