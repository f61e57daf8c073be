package models

// SearchHit is one organic result returned by the web search provider.
type SearchHit struct {
	Link     string `json:"link"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position,omitempty"`
}
