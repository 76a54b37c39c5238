// Package client implements a transport-agnostic HTTP client facade.
//
// Callers issue requests against the Client API; the client dispatches them
// through an interchangeable Transport backend, normalizes whatever response
// or failure the transport produces, and optionally retries timeout-class
// failures under a configurable backoff policy before surfacing a uniform
// error taxonomy.
//
//	tr := nethttp.New()
//	c, err := client.NewBuilder(tr).
//		WithMaxRetries(3).
//		WithMaxDelay(60 * time.Second).
//		Build()
//	if err != nil {
//		// handle configuration error
//	}
//	defer c.Close()
//
//	resp, status, err := c.Get(ctx, "https://api.example.com/things",
//		client.WithQueryParam("page", "2"))
//
// By default a received 4xx/5xx status code is raised as a client-status or
// server-status error instead of being returned; pass WithoutErrorCheck to
// receive the raw response and status code unchecked.
package client
