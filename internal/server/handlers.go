package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/color-transfer/internal/colorspace"
	"github.com/ironsheep/color-transfer/internal/imaging"
	"github.com/ironsheep/color-transfer/internal/transfer"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "color_statistics", "color_transfer").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_info":
		return s.handleImageInfo(args)
	case "color_statistics":
		return s.handleColorStatistics(args)
	case "color_transfer":
		return s.handleColorTransfer(ctx, args)
	case "color_transfer_preview":
		return s.handleColorTransferPreview(ctx, args)
	case "color_cache_clear":
		return s.handleColorCacheClear()
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments, treating missing arguments as an
// empty object.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	return json.Unmarshal(args, v)
}

// StatisticsResult reports the Lab statistics of one image.
type StatisticsResult struct {
	Path       string                   `json:"path"`
	Width      int                      `json:"width"`
	Height     int                      `json:"height"`
	SampleSize int                      `json:"sample_size"`
	Statistics transfer.ImageStatistics `json:"statistics"`
	MeanColor  imaging.ColorResult      `json:"mean_color"`
}

// TransferResult describes a full-resolution transfer written to disk.
type TransferResult struct {
	Output     string  `json:"output"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Intensity  float32 `json:"intensity"`
	Downscaled bool    `json:"downscaled"`
}

// PreviewResult is a preview rendering returned inline.
type PreviewResult struct {
	*imaging.EncodedImage
	Backend   string  `json:"backend"`
	Intensity float32 `json:"intensity"`
}

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	return imaging.LoadImageInfo(s.loader, a.Path)
}

type colorStatisticsArgs struct {
	Path          string `json:"path"`
	MaxSampleSize int    `json:"max_sample_size"`
}

func (s *Server) handleColorStatistics(args json.RawMessage) (interface{}, error) {
	var a colorStatisticsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	if a.MaxSampleSize <= 0 {
		a.MaxSampleSize = s.engine.Governor().SampleBudget()
	}

	img, err := s.loader.Load(a.Path)
	if err != nil {
		return nil, err
	}
	stats, err := transfer.ComputeStatistics(img, a.MaxSampleSize)
	if err != nil {
		return nil, err
	}

	r, g, b := colorspace.LabToRGB(stats.MeanLab())
	bounds := img.Bounds()
	return &StatisticsResult{
		Path:       a.Path,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		SampleSize: a.MaxSampleSize,
		Statistics: stats,
		MeanColor:  imaging.NewColorResult(colorspace.ToByte(r), colorspace.ToByte(g), colorspace.ToByte(b)),
	}, nil
}

type colorTransferArgs struct {
	Input     string   `json:"input"`
	Reference string   `json:"reference"`
	Output    string   `json:"output"`
	Intensity *float32 `json:"intensity"`
	Quality   int      `json:"quality"`
}

func (a *colorTransferArgs) intensity() float32 {
	if a.Intensity == nil {
		return transfer.DefaultIntensity
	}
	return transfer.ClampIntensity(*a.Intensity)
}

func (s *Server) handleColorTransfer(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a colorTransferArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Input == "" || a.Reference == "" || a.Output == "" {
		return nil, errors.New("input, reference and output are required")
	}
	if _, err := imaging.EncoderForPath(a.Output, a.Quality); err != nil {
		return nil, err
	}

	img, err := s.loader.Load(a.Input)
	if err != nil {
		return nil, err
	}

	s.engine.SetPairing(a.Input, a.Reference)
	t := a.intensity()
	out, err := s.engine.TransferWithReference(ctx, img, a.Reference, t)
	if err != nil {
		return nil, err
	}
	if err := imaging.Save(out, a.Output, a.Quality); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &TransferResult{
		Output:     a.Output,
		Width:      out.Width,
		Height:     out.Height,
		Intensity:  t,
		Downscaled: out.Width != bounds.Dx() || out.Height != bounds.Dy(),
	}, nil
}

// DefaultPreviewSize is the long edge of previews when the caller does not
// choose one.
const DefaultPreviewSize = 512

type colorTransferPreviewArgs struct {
	Input        string   `json:"input"`
	Reference    string   `json:"reference"`
	Intensity    *float32 `json:"intensity"`
	MaxDimension int      `json:"max_dimension"`
}

func (s *Server) handleColorTransferPreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a colorTransferPreviewArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Input == "" || a.Reference == "" {
		return nil, errors.New("input and reference are required")
	}
	if a.MaxDimension <= 0 {
		a.MaxDimension = DefaultPreviewSize
	}
	t := float32(transfer.DefaultIntensity)
	if a.Intensity != nil {
		t = transfer.ClampIntensity(*a.Intensity)
	}

	img, err := s.loader.Load(a.Input)
	if err != nil {
		return nil, err
	}
	ref, err := s.loader.Load(a.Reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transfer.ErrNoReference, err)
	}
	small, err := imaging.Downscale(img, a.MaxDimension)
	if err != nil {
		return nil, err
	}

	backend := s.engine.PreviewBackend()
	out, err := s.engine.Preview(ctx, small, ref, t)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNGBase64(out)
	if err != nil {
		return nil, err
	}
	return &PreviewResult{EncodedImage: encoded, Backend: backend, Intensity: t}, nil
}

func (s *Server) handleColorCacheClear() (interface{}, error) {
	cleared := s.engine.Cache().Len()
	s.engine.ClearCache()
	return map[string]interface{}{
		"cleared": cleared,
		"stats":   s.engine.Cache().Stats(),
	}, nil
}
