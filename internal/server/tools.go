package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

var intensityProperty = map[string]interface{}{
	"type":        "number",
	"description": "Blend factor between the original (0) and the fully matched image (1). Default 0.05",
	"default":     0.05,
	"minimum":     0,
	"maximum":     1,
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_info",
			Description: "Load an image file and return its dimensions, format and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "color_statistics",
			Description: "Compute the per-channel CIE Lab mean and standard deviation of an image from a bounded sample, plus its mean color as hex.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image file"),
					"max_sample_size": map[string]interface{}{
						"type":        "integer",
						"description": "Long edge the image is reduced to before sampling. Default depends on available memory (800 when plentiful)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "color_transfer",
			Description: "Transfer the color mood of a reference photograph onto an input photograph at full resolution and write the result. Under memory pressure the output may be downscaled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input":     pathProperty("Absolute path to the image to recolor"),
					"reference": pathProperty("Absolute path to the reference image"),
					"output":    pathProperty("Absolute output path; .png, .jpg or .bmp"),
					"intensity": intensityProperty,
					"quality": map[string]interface{}{
						"type":        "integer",
						"description": "JPEG quality 1-100. Default 92",
						"default":     92,
					},
				},
				"required": []string{"input", "reference", "output"},
			},
		},
		{
			Name:        "color_transfer_preview",
			Description: "Render a small color-transfer preview and return it as base64-encoded PNG. Uses the GPU shader when available and the CPU otherwise.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"input":     pathProperty("Absolute path to the image to recolor"),
					"reference": pathProperty("Absolute path to the reference image"),
					"intensity": intensityProperty,
					"max_dimension": map[string]interface{}{
						"type":        "integer",
						"description": "Long edge of the preview in pixels. Default 512",
						"default":     512,
					},
				},
				"required": []string{"input", "reference"},
			},
		},
		{
			Name:        "color_cache_clear",
			Description: "Drop all cached reference statistics.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
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
