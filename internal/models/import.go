package models

// ImportBucket is one page worth of comments to import
type ImportBucket struct {
	Page     string
	Comments []ImportItem
}

// ImportItem is a candidate comment from an import body.
// Values are kept as supplied (stringified); caps are applied by the importer.
type ImportItem struct {
	ID    string
	Name  string
	Email string
	Text  string
	Time  string
}

// ImportSummary counts the outcome of one page of an import
type ImportSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// PreviewItem is a would-be imported comment
type PreviewItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Text   string `json:"text"`
	Time   string `json:"time"`
	Exists bool   `json:"exists"`
}

// PagePreview groups preview items for one page
type PagePreview struct {
	Page    string        `json:"page"`
	Items   []PreviewItem `json:"items"`
	Summary ImportSummary `json:"summary"`
}

// ImportResult is the outcome of a bulk import.
// Pages is only populated for previews.
type ImportResult struct {
	Preview bool                     `json:"preview,omitempty"`
	Pages   []PagePreview            `json:"pages,omitempty"`
	Summary map[string]ImportSummary `json:"summary,omitempty"`
}

// AuditEntry records one committed import
type AuditEntry struct {
	Time    string                   `json:"time"`
	By      string                   `json:"by"`
	Summary map[string]ImportSummary `json:"summary"`
}
