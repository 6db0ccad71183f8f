package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "label_scan",
			Description: "Scan a product label photo and return product name, brand, expiry and manufacturing dates, ingredients, warnings and a confidence score, with the pipeline trace. Pass several paths for multiple photos of one product.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the label image",
					},
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to several images of the same product, in order (e.g. front then back)",
					},
				},
			},
		},
		{
			Name:        "label_validate_image",
			Description: "Check whether a photo is good enough to read: resolution, blur, brightness and contrast, with user-facing feedback.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "label_extract_text",
			Description: "Run OCR on one region of a normalized label image. Returns an empty string when no valid text is found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"region": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"front", "middle", "back", "full"},
						"description": "Region to read (default 'full')",
						"default":     "full",
					},
					"clean": map[string]interface{}{
						"type":        "boolean",
						"description": "Drop symbol-only and one-character lines and collapse whitespace",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "label_extract_fields",
			Description: "Extract structured label fields from text that was already read. Give either 'text' or the 'front' and 'back' region texts.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Full label text",
					},
					"front": map[string]interface{}{
						"type":        "string",
						"description": "Text from the top of the label",
					},
					"back": map[string]interface{}{
						"type":        "string",
						"description": "Text from the bottom of the label",
					},
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
