package auditquery

import "context"

// RecordsPage is one fetched page of raw records. An empty NextPage
// means it was the last page.
type RecordsPage struct {
	Records  []map[string]any
	NextPage string
}

// PageFetcher is the single capability the paginator needs from the
// remote service. pageURL is either the results endpoint for the first
// page or a continuation handle returned verbatim by a previous page.
type PageFetcher interface {
	FetchRecordsPage(ctx context.Context, pageURL string) (RecordsPage, error)
}

// drainPages fetches every result page starting at resultsURL and
// returns the concatenated records in page order. Any failed fetch
// aborts the drain: the accumulated records are discarded and a
// *PaginationError carries the count for diagnostics.
func drainPages(ctx context.Context, fetch PageFetcher, jobID, resultsURL string) ([]map[string]any, error) {
	var records []map[string]any

	pageURL := resultsURL
	for pageURL != "" {
		if err := ctx.Err(); err != nil {
			return nil, &PaginationError{JobID: jobID, PageURL: pageURL, Fetched: len(records), Err: err}
		}

		page, err := fetch.FetchRecordsPage(ctx, pageURL)
		if err != nil {
			return nil, &PaginationError{JobID: jobID, PageURL: pageURL, Fetched: len(records), Err: err}
		}

		records = append(records, page.Records...)
		pageURL = page.NextPage
	}

	return records, nil
}
