package auth

import "time"

// signupRequest registers a new account
type signupRequest struct {
	Name     string `json:"name" minLength:"2"`
	Email    string `json:"email" format:"email"`
	Password string `json:"password" minLength:"8"`
}

// loginRequest exchanges credentials for a token
type loginRequest struct {
	Email    string `json:"email" format:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}
