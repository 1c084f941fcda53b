// Package concurrent provides bounded fan-out helpers with error aggregation.
//
// MapWithLimit transforms items on at most limit goroutines while preserving
// order:
//
//	logs, err := concurrent.MapWithLimit(ctx, pods, 4, func(ctx context.Context, pod corev1.Pod) (string, error) {
//	    return fetchLogs(ctx, pod)
//	})
//
// Burst is for load that must arrive together, such as probing a rate
// limiter with simultaneous requests:
//
//	codes, err := concurrent.Burst(ctx, requests, len(requests)+1, send)
//
// Collector gathers results of heterogeneous goroutines:
//
//	c := concurrent.NewCollector[string]()
//	c.Go(func() (string, error) { return checkCRD(ctx, "apimanagers.apps.3scale.net") })
//	found, err := c.Wait()
//
// All helpers run every item even if some fail and report failures with
// errors.Join.
package concurrent
