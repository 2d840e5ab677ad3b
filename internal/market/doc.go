// Package market coordinates the lpmarket client's state: the persisted
// session, the backend api client, and the current catalog snapshot.
//
// Manager is the single entry point for both binaries. It enforces the
// client-side contracts that the UI must not have to think about:
//
//   - The session token has one writer. Login, Logout, and the forced
//     logout after a rejected token all live here; fetch and purchase
//     paths only read it.
//   - Purchases route by membership in the limited group of the current
//     snapshot and are followed by a full re-fetch, issued only after the
//     purchase response is observed. Stock is never decremented locally.
//   - A failed fetch leaves the previous snapshot alone; the user keeps
//     seeing stale-but-valid data rather than a blank screen.
//   - Listing submissions are validated before any network call.
//
// Progress and outcomes are reported through a leveled Notice callback:
//
//	mgr, err := market.NewManager(settings, func(n market.Notice) {
//	    fmt.Println(n.Message)
//	})
package market
