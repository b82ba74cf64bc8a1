// Package helpers provides HTTP and assertion utilities for integration tests
// that drive the gin router end to end.
//
//	jwtHelper := helpers.NewJWTHelper(t)
//	req := helpers.NewRequest(t, http.MethodPost, "/api/events").
//	    WithBody(body).
//	    WithAuth(jwtHelper, organizer).
//	    Build()
//	resp := helpers.Serve(router, req)
//	helpers.AssertStatus(t, resp, http.StatusCreated)
package helpers
