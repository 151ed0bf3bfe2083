package httpdto

type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type ToggleResponse struct {
	Active bool `json:"active"`
}

// Page wraps a list response with the page it belongs to.
type Page[T any] struct {
	Page  int `json:"page"`
	Items []T `json:"items"`
}

func NewPage[T any](page int, items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Page: page, Items: items}
}
