package domain

// ImageAnalysis is the structured result of running one extracted image
// through the vision model.
type ImageAnalysis struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Entities    []string `json:"entities"`
}

// QualityMetrics quantifies the structure of a synthesized Markdown document.
type QualityMetrics struct {
	TotalLines          int `json:"total_lines"`
	TotalCharacters     int `json:"total_characters"`
	HeaderCount         int `json:"header_count"`
	CodeBlockCount      int `json:"code_block_count"`
	TableRowCount       int `json:"table_row_count"`
	ListItemCount       int `json:"list_item_count"`
	ImageReferenceCount int `json:"image_reference_count"`
}
