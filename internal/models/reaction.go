package models

// PageReactions maps a reaction code (e.g. "emoji_1f44d") to its count
type PageReactions map[string]int

// ReactionsDocument is the persisted reactions file: page -> counters
type ReactionsDocument map[string]PageReactions

// ReactionRequest is the POST /api/reactions body
type ReactionRequest struct {
	Page string `json:"page"`
	Name string `json:"name"`
}
