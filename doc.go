// Package stubhttp is an in-process HTTP server for tests. It listens on
// the loopback interface, parses real HTTP/1.x requests and answers them
// with canned responses registered by the test.
//
// A typical test starts a server, registers mocks and inspects the requests
// the code under test sent:
//
//	srv, err := stubhttp.New(stubhttp.DefaultConfig())
//	if err != nil {
//		t.Fatal(err)
//	}
//	if err := srv.Start(0); err != nil {
//		t.Fatal(err)
//	}
//	t.Cleanup(srv.Close)
//
//	srv.MockResponse(stubhttp.Response{StatusCode: 201, Data: []byte("ok")},
//		stubhttp.Endpoint("POST /orders"), stubhttp.OnlyOnce())
//
//	// ... exercise the client against srv.BaseURL() ...
//
//	last := srv.LastRequest()
//
// Responses are chosen in this order: ad-hoc handlers, then mocks with an
// endpoint or matcher, then unconditional mocks, then a built-in empty 200.
// Within each group the first registered entry that applies wins. OnlyOnce
// entries are removed once they have been served. Registering a second
// permanent unconditional mock replaces the first.
//
// Every request is logged before its response is chosen, under the same
// lock, so the log order is the order in which responses were resolved.
package stubhttp
