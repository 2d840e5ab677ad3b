// Package api provides the HTTP client for the lpmarket backend.
//
// The Client in this package handles:
//   - Bearer authentication via a token provider
//   - The backend's JSON and multipart request shapes
//   - Timeout handling and per-request ids
//   - Mapping backend failures into typed errors
//
// # Basic Usage
//
//	client := api.NewClient("http://localhost:8000", 60*time.Second, session.Token)
//
//	token, err := client.Login(ctx, "user", "secret")
//
//	products, err := client.FetchProducts(ctx)
//
// # Error Handling
//
// Authentication failures surface as ErrUnauthorized and should force a
// local logout. Every other non-2xx reply becomes an *Error carrying the
// backend's verbatim message when one was sent:
//
//	if errors.Is(err, api.ErrUnauthorized) { /* clear session */ }
//
//	var apiErr *api.Error
//	if errors.As(err, &apiErr) { fmt.Println(apiErr.Message) }
package api
