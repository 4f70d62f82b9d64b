// Package chain provides the fluent request builder used to write API tests.
//
// A Builder accumulates one request and a list of deferred checks, then Run
// sends the request and evaluates the checks in order:
//
//	store := state.NewContext()
//	_, err := chain.New(baseURL, store).
//		Post("/login", map[string]string{"user": "ada"}).
//		ExpectStatus(200).
//		SaveCookieFromResponse("session").
//		Run(ctx)
//
//	_, err = chain.New(baseURL, store).
//		Get("/me").
//		SendCookieFromContext().
//		ExpectBodyField("user", "ada").
//		Run(ctx)
//
// Builders that share a *state.Context see each other's saved cookies and
// fields. A Builder itself is not safe for concurrent use.
package chain
