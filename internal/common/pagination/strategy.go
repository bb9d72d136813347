package pagination

// Strategy abstracts how a listing page is selected, so cursor or keyset
// pagination can be introduced without touching the handlers.
type Strategy interface {
	// CalculateQuery maps request params to query parameters.
	CalculateQuery(params Params) QueryParams

	// BuildMetadata constructs the response metadata. hasMore is only
	// meaningful for cursor strategies, which cannot afford a total count.
	BuildMetadata(params Params, total int64, hasMore bool) Metadata
}

// QueryParams is the strategy-agnostic shape handed to repositories.
type QueryParams struct {
	Offset int
	Limit  int
	Cursor *string
	After  *string
}

// OffsetStrategy is classic page/limit pagination, the one strategy in use.
type OffsetStrategy struct{}

// CalculateQuery computes offset and limit from the requested page.
func (s OffsetStrategy) CalculateQuery(params Params) QueryParams {
	return QueryParams{
		Offset: CalculateOffset(params.Page, params.Limit),
		Limit:  params.Limit,
		Cursor: nil,
		After:  nil,
	}
}

// BuildMetadata fills the metadata block, including the derived page count.
func (s OffsetStrategy) BuildMetadata(params Params, total int64, hasMore bool) Metadata {
	return Metadata{
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: CalculateTotalPages(total, params.Limit),
	}
}

// A cursor strategy would encode base64(starts_at + event_id) as an opaque
// cursor and report hasMore instead of total_pages, trading the COUNT query
// for stable iteration under concurrent ingestion. Not needed at the current
// catalog size.
