package echoapi

import "github.com/saadqamar22/LMS-2.0-sub000/core/user"

// GenerateToken signs a token for usr with the server's key.
func GenerateToken(s *Server, usr user.User) (string, error) {
	return s.auth.GenerateToken(usr)
}
