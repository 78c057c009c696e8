package controllers

import (
	"github.com/shashiranjanraj/bazaar/app/services"
	"github.com/shashiranjanraj/bazaar/pkg/ctx"
)

type AuthController struct {
	auth *services.AuthService
}

func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Signup handles POST /api/auth/signup.
func (ac *AuthController) Signup(c *ctx.Context) {
	var in services.SignupInput
	if !c.BindJSON(&in) {
		return
	}
	s, err := ac.auth.Signup(c.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Created(s)
}

// Login handles POST /api/auth/login.
func (ac *AuthController) Login(c *ctx.Context) {
	var in services.LoginInput
	if !c.BindJSON(&in) {
		return
	}
	s, err := ac.auth.Login(c.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(s)
}

// Logout handles POST /api/auth/logout.
func (ac *AuthController) Logout(c *ctx.Context) {
	if err := ac.auth.Logout(c.Context(), c.Identity()); err != nil {
		respondError(c, err)
		return
	}
	c.Success(map[string]string{"message": "Logged out"})
}

// Me handles GET /api/auth/me.
func (ac *AuthController) Me(c *ctx.Context) {
	u, err := ac.auth.CurrentUser(c.Context(), c.Identity())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(u)
}

// UpdateProfile handles PUT /api/auth/me.
func (ac *AuthController) UpdateProfile(c *ctx.Context) {
	var in services.ProfileInput
	if !c.BindJSON(&in) {
		return
	}
	s, err := ac.auth.UpdateProfile(c.Context(), c.Identity(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Success(s)
}
