// Package resilience bounds how much concurrent work a component accepts.
//
// A Bulkhead hands out a fixed number of slots; callers that cannot get one
// within MaxWait are turned away instead of piling up behind CPU-bound work:
//
//	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "hash", MaxConcurrent: 4})
//	hash, err := resilience.ExecuteWithResult(bh, ctx, func() (string, error) { ... })
package resilience
