package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"indisense/sentiment-gateway/internal/capture"
	"indisense/sentiment-gateway/models"
)

// Client calls indisense.v1.Analyzer and implements capture.Transport.
type Client struct {
	cc grpc.ClientConnInterface
}

var _ capture.Transport = (*Client)(nil)

// NewClient wraps an established connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Analyze sends one payload to the matching method.
func (c *Client) Analyze(ctx context.Context, p capture.Payload) (*models.AnalysisResult, error) {
	var (
		method string
		fields map[string]interface{}
	)
	switch v := p.(type) {
	case capture.TextPayload:
		method, fields = methodAnalyzeText, map[string]interface{}{"text": v.Text}
	case capture.MediaPayload:
		method = methodAnalyzeAudio
		if v.Kind == capture.ModeVideo {
			method = methodAnalyzeVideo
		}
		fields = map[string]interface{}{
			"audioData": base64.StdEncoding.EncodeToString(v.Data),
			"mimeType":  v.MimeType,
			"fileName":  v.SourceName,
		}
	default:
		return nil, fmt.Errorf("rpc: unsupported payload %T", p)
	}

	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("rpc: build request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, grpc.MaxCallSendMsgSize(MaxMessageSize)); err != nil {
		return nil, err
	}

	body, err := protojson.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("rpc: decode response: %w", err)
	}
	var resp models.AnalysisResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("rpc: decode response: %w", err)
	}
	return resp.Result(), nil
}
