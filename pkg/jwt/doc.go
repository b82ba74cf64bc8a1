// Package jwt issues and validates the API's HS256 tokens.
//
// Access tokens authenticate requests; refresh tokens are exchanged for a
// new pair and are signed with a separate secret:
//
//	svc, _ := jwt.NewService(jwt.Config{AccessSecret: a, RefreshSecret: r, AccessTTL: 7 * 24 * time.Hour, RefreshTTL: 30 * 24 * time.Hour})
//	token, _ := svc.GenerateAccess(jwt.Subject{UserID: "user:abc", Role: "CTV"})
//	claims, err := svc.ValidateAccess(token)
package jwt
