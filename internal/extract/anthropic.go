package extract

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "os"
)

type AnthropicClient struct {
    http   *http.Client
    apiKey string
}

func NewAnthropicClient() *AnthropicClient {
    return &AnthropicClient{http: &http.Client{}, apiKey: os.Getenv("ANTHROPIC_API_KEY")}
}

func (c *AnthropicClient) Name() string { return "anthropic" }

type anthropicContent struct {
    Type   string `json:"type"`
    Text   string `json:"text,omitempty"`
    Source *struct {
        Type      string `json:"type"`
        MediaType string `json:"media_type"`
        Data      string `json:"data"`
    } `json:"source,omitempty"`
}

type anthropicMsgReq struct {
    Model     string `json:"model"`
    MaxTokens int    `json:"max_tokens"`
    System    string `json:"system,omitempty"`
    Messages  []struct {
        Role    string             `json:"role"`
        Content []anthropicContent `json:"content"`
    } `json:"messages"`
}

type anthropicMsgResp struct {
    Content []struct {
        Text string `json:"text"`
    } `json:"content"`
    StopReason string `json:"stop_reason"`
    Usage      struct {
        InputTokens  int `json:"input_tokens"`
        OutputTokens int `json:"output_tokens"`
    } `json:"usage"`
}

func (c *AnthropicClient) Do(ctx context.Context, req Request) (Response, error) {
    if c.apiKey == "" {
        return Response{}, errors.New("missing ANTHROPIC_API_KEY")
    }

    system := req.SystemPrompt
    if system == "" {
        system = DefaultSystemPrompt
    }

    var content []anthropicContent
    if req.ImageBase64 != "" {
        img := anthropicContent{Type: "image"}
        img.Source = &struct {
            Type      string `json:"type"`
            MediaType string `json:"media_type"`
            Data      string `json:"data"`
        }{Type: "base64", MediaType: req.ImageMIME, Data: req.ImageBase64}
        content = append(content, img)
    }
    content = append(content, anthropicContent{Type: "text", Text: userPrompt(req)})

    payload := anthropicMsgReq{Model: req.Model, MaxTokens: 4096, System: system}
    payload.Messages = []struct {
        Role    string             `json:"role"`
        Content []anthropicContent `json:"content"`
    }{{Role: "user", Content: content}}

    body, _ := json.Marshal(payload)
    httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.anthropic.com/v1/messages", bytes.NewReader(body))
    httpReq.Header.Set("x-api-key", c.apiKey)
    httpReq.Header.Set("anthropic-version", "2023-06-01")
    httpReq.Header.Set("Content-Type", "application/json")

    resp, err := c.http.Do(httpReq)
    if err != nil {
        return Response{}, err
    }
    defer resp.Body.Close()

    if resp.StatusCode == 429 {
        return Response{}, ErrRateLimited
    }
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        return Response{}, fmt.Errorf("anthropic status %d", resp.StatusCode)
    }

    var r anthropicMsgResp
    if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
        return Response{}, err
    }
    if r.StopReason == "refusal" {
        return Response{}, ErrContentRefused
    }
    if len(r.Content) == 0 {
        return Response{}, errors.New("no content")
    }

    text := r.Content[0].Text
    return Response{
        Items:     ParseItems(text),
        RawText:   text,
        TokensIn:  r.Usage.InputTokens,
        TokensOut: r.Usage.OutputTokens,
    }, nil
}
