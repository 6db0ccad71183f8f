package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/ironsheep/labelvision/internal/extract"
	"github.com/ironsheep/labelvision/internal/imaging"
	"github.com/ironsheep/labelvision/internal/ocr"
	"github.com/ironsheep/labelvision/internal/pipeline"
	"github.com/ironsheep/labelvision/internal/scanerr"
	"github.com/ironsheep/labelvision/internal/textclean"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "label_scan").
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
// Errors carrying a scanerr code include its fields as error data.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn().Err(err).Str("tool", params.Name).Msg("tool failed")
		var se *scanerr.Error
		if errors.As(err, &se) {
			return s.errorResponse(req.ID, -32000, "Tool execution failed", se.ToMap())
		}
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
	case "label_scan":
		return s.handleLabelScan(ctx, args)
	case "label_validate_image":
		return s.handleLabelValidateImage(args)
	case "label_extract_text":
		return s.handleLabelExtractText(ctx, args)
	case "label_extract_fields":
		return s.handleLabelExtractFields(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
// Empty string data is omitted.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	if str, ok := data.(string); ok && str == "" {
		data = nil
	}
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return scanerr.NewInvalidInputError("invalid arguments: "+err.Error(), nil)
	}
	return nil
}

type labelScanArgs struct {
	Path  string   `json:"path"`
	Paths []string `json:"paths"`
}

func (s *Server) handleLabelScan(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a labelScanArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	paths := a.Paths
	if a.Path != "" {
		paths = append([]string{a.Path}, paths...)
	}
	if len(paths) == 0 {
		return nil, scanerr.NewInvalidInputError("path or paths is required", nil)
	}

	imgs := make([]pipeline.Image, 0, len(paths))
	for _, p := range paths {
		img, err := pipeline.LoadImage(p)
		if err != nil {
			return nil, err
		}
		imgs = append(imgs, img)
	}
	res, err := s.pipeline.ProcessImages(ctx, imgs)
	if err != nil {
		return nil, err
	}
	return res, nil
}

type pathArgs struct {
	Path string `json:"path"`
}

type validateImageResult struct {
	Quality *imaging.QualityReport `json:"quality"`
	Image   *imaging.ImageInfo     `json:"image,omitempty"`
}

func (s *Server) handleLabelValidateImage(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	data, err := imaging.ReadFile(a.Path)
	if err != nil {
		return nil, err
	}

	res := validateImageResult{Quality: imaging.ValidateQuality(data)}
	// Undecodable files are still reported through the quality issues.
	if info, err := imaging.Describe(data); err == nil {
		res.Image = info
	}
	return res, nil
}

type extractTextArgs struct {
	Path   string `json:"path"`
	Region string `json:"region"`
	Clean  bool   `json:"clean"`
}

type extractTextResult struct {
	Region     string        `json:"region"`
	Engine     string        `json:"engine"`
	Text       string        `json:"text"`
	Characters int           `json:"characters"`
	Valid      bool          `json:"valid"`
	Shape      imaging.Shape `json:"shape"`
}

func (s *Server) handleLabelExtractText(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a extractTextArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Region == "" {
		a.Region = imaging.RegionFull
	}
	a.Region = strings.ToLower(a.Region)

	data, err := imaging.ReadFile(a.Path)
	if err != nil {
		return nil, err
	}
	img, _, err := imaging.Normalize(data)
	if err != nil {
		return nil, err
	}
	regions := imaging.SplitRegions(img)

	var region image.Image
	switch a.Region {
	case imaging.RegionFront:
		region = regions.Front
	case imaging.RegionMiddle:
		region = regions.Middle
	case imaging.RegionBack:
		region = regions.Back
	case imaging.RegionFull:
		region = regions.Full
	default:
		return nil, scanerr.NewInvalidInputError(
			fmt.Sprintf("unknown region: %s (valid: front, middle, back, full)", a.Region),
			map[string]interface{}{"region": a.Region})
	}

	text, err := s.engine.ExtractText(ctx, region)
	if err != nil {
		return nil, err
	}
	if a.Clean {
		text = textclean.Clean(text)
	}
	return extractTextResult{
		Region:     a.Region,
		Engine:     s.engine.Name(),
		Text:       text,
		Characters: utf8.RuneCountInString(text),
		Valid:      ocr.IsValidText(text),
		Shape:      imaging.ShapeOf(region),
	}, nil
}

type extractFieldsArgs struct {
	Text  string `json:"text"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

type extractFieldsResult struct {
	extract.Result
	Tier1          string `json:"tier1"`
	RepairStrategy string `json:"repair_strategy,omitempty"`
}

func (s *Server) handleLabelExtractFields(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a extractFieldsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	in := extract.Input{
		Front: textclean.Clean(a.Front),
		Back:  textclean.Clean(a.Back),
		Full:  textclean.Clean(a.Text),
	}
	res := s.extractor.Extract(ctx, in)
	return extractFieldsResult{
		Result:         res,
		Tier1:          string(res.Tier1.Status),
		RepairStrategy: res.Tier1.Strategy,
	}, nil
}
