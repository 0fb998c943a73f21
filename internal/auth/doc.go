// Package auth exchanges a username and password for an active key using
// the CCC UserPass request.
//
//go:generate go tool mockgen -destination=mock_auth.go -package=auth github.com/fzdarsky/ccclogin/internal/auth Transport,Codec
package auth
