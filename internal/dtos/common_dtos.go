// internal/dtos/common_dtos.go
package dtos

import "github.com/aftras/crm/internal/repositories"

// ListResponse wraps every collection reply. Degraded is true when the store
// could not be read and Data is empty because of it.
type ListResponse[T any] struct {
	Data     []T  `json:"data"`
	Degraded bool `json:"degraded"`
}

func NewListResponse[T any](res repositories.ReadResult[T]) ListResponse[T] {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Data: items, Degraded: res.Degraded()}
}

// MapListResponse converts each item with fn.
func MapListResponse[T, U any](res repositories.ReadResult[T], fn func(T) U) ListResponse[U] {
	out := make([]U, 0, len(res.Items))
	for _, item := range res.Items {
		out = append(out, fn(item))
	}
	return ListResponse[U]{Data: out, Degraded: res.Degraded()}
}

// Generic confirmation response.
type ConfirmationResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
	Driver string `json:"driver"`
}

type CountResponse struct {
	Count    int  `json:"count"`
	Degraded bool `json:"degraded,omitempty"`
}
