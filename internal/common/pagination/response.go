package pagination

// Response wraps one page of items together with its pagination metadata.
//
//	events := []EventDTO{...}
//	respond.JSON(w, http.StatusOK, pagination.NewResponse(events, meta))
type Response[T any] struct {
	Data       []T      `json:"data"`
	Pagination Metadata `json:"pagination"`
}

// NewResponse builds a paginated response from one page of items.
func NewResponse[T any](data []T, metadata Metadata) Response[T] {
	return Response[T]{
		Data:       data,
		Pagination: metadata,
	}
}
