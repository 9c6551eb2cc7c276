// Package pages holds the HTML page components rendered by handlers.
// Components are templ.Component values backed by html/template documents
// parsed at init. Layout data (session user, CSRF token, active path) is
// read from the request context, where the layout injector placed it.
package pages

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/arenahub/arena/internal/templates/layouts"
)

// frame is the data envelope every page template receives. Data carries the
// page-specific payload; the rest is shared layout state.
type frame struct {
	Title      string
	Authed     bool
	Username   string
	AvatarURL  string
	CSRF       string
	ActivePath string
	Data       any
}

// component wraps a parsed template as a templ.Component, filling the frame
// from the request context at render time.
func component(t *template.Template, title string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, "layout", frame{
			Title:      title,
			Authed:     layouts.IsAuthenticated(ctx),
			Username:   layouts.GetUsername(ctx),
			AvatarURL:  layouts.GetAvatarURL(ctx),
			CSRF:       layouts.GetCSRFToken(ctx),
			ActivePath: layouts.GetActivePath(ctx),
			Data:       data,
		})
	})
}

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8">
	<meta name="viewport" content="width=device-width, initial-scale=1">
	<title>{{.Title}} · Arena</title>
	<link rel="stylesheet" href="/static/css/main.css">
</head>
<body>
<header class="topbar">
	<a class="brand" href="/main/home">Arena</a>
	{{if .Authed}}
	<nav>
		<a href="/main/home">Home</a>
		<a href="/main/tournaments">Tournaments</a>
		<a href="/main/store">Store</a>
		<a href="/main/profile">Profile</a>
		<a href="/main/about">About</a>
	</nav>
	<div class="user">
		<img class="avatar" src="{{.AvatarURL}}" alt="">
		<span>{{.Username}}</span>
		<a href="/logout">Log out</a>
	</div>
	{{end}}
</header>
<main>{{template "content" .}}</main>
</body>
</html>{{end}}`

// base is the shared layout. Page templates clone it and add "content".
var base = template.Must(template.New("pages").Parse(layoutHTML))

func mustPage(content string) *template.Template {
	return template.Must(template.Must(base.Clone()).Parse(content))
}

// --- Login ---

type loginData struct {
	Username string
	Error    string
}

var loginTmpl = mustPage(`{{define "content"}}
<section class="auth-card">
	<h1>Sign in</h1>
	{{with .Data.Error}}<p class="error">{{.}}</p>{{end}}
	<form method="post" action="/login">
		<input type="hidden" name="csrf_token" value="{{.CSRF}}">
		<label>Username <input name="username" value="{{.Data.Username}}" required></label>
		<label>Password <input name="password" type="password" required></label>
		<button type="submit">Sign in</button>
	</form>
	<a class="google-btn" href="/auth/google">Sign in with Google</a>
	<p>No account? <a href="/register">Register</a></p>
</section>
{{end}}`)

// LoginPage renders the login form. username is the preserved input after a
// failed attempt; errMsg is the inline error, empty for a fresh form.
func LoginPage(username, errMsg string) templ.Component {
	return component(loginTmpl, "Sign in", loginData{Username: username, Error: errMsg})
}

// --- Register ---

// RegisterForm carries the preserved registration input for re-renders.
type RegisterForm struct {
	Username string
	Phone    string
}

type registerData struct {
	Form  RegisterForm
	Error string
}

var registerTmpl = mustPage(`{{define "content"}}
<section class="auth-card">
	<h1>Create account</h1>
	{{with .Data.Error}}<p class="error">{{.}}</p>{{end}}
	<form method="post" action="/register">
		<input type="hidden" name="csrf_token" value="{{.CSRF}}">
		<label>Username <input name="username" value="{{.Data.Form.Username}}" required></label>
		<label>Password <input name="password" type="password" required></label>
		<label>Phone <input name="phone" value="{{.Data.Form.Phone}}" required></label>
		<button type="submit">Register</button>
	</form>
	<p>Already registered? <a href="/login">Sign in</a></p>
</section>
{{end}}`)

// RegisterPage renders the registration form with preserved input.
func RegisterPage(form RegisterForm, errMsg string) templ.Component {
	return component(registerTmpl, "Register", registerData{Form: form, Error: errMsg})
}

// --- Complete profile ---

type completeProfileData struct {
	Username string
	Phone    string
	Error    string
}

var completeProfileTmpl = mustPage(`{{define "content"}}
<section class="auth-card">
	<h1>Complete your profile</h1>
	<p>Pick a username and add a phone number to continue.</p>
	{{with .Data.Error}}<p class="error">{{.}}</p>{{end}}
	<form method="post" action="/complete-profile">
		<input type="hidden" name="csrf_token" value="{{.CSRF}}">
		<label>Username <input name="username" value="{{.Data.Username}}" required></label>
		<label>Phone <input name="phone" value="{{.Data.Phone}}" required></label>
		<button type="submit">Save</button>
	</form>
</section>
{{end}}`)

// CompleteProfilePage renders the profile completion form with preserved input.
func CompleteProfilePage(username, phone, errMsg string) templ.Component {
	return component(completeProfileTmpl, "Complete profile", completeProfileData{
		Username: username,
		Phone:    phone,
		Error:    errMsg,
	})
}

// --- Main pages ---

// Tournament is the view model for a tournament listing row.
type Tournament struct {
	Name      string
	Game      string
	PrizePool string
	StartsAt  string
}

// StoreItem is the view model for a store listing card.
type StoreItem struct {
	Name        string
	Description string
	Price       string
	ImageURL    string
}

// Profile is the view model for the profile page.
type Profile struct {
	Username  string
	Phone     string
	Email     string
	AvatarURL string
}

// MainData is the payload for the /main/:page views.
type MainData struct {
	CurrentPage string
	Tournaments []Tournament
	Items       []StoreItem
	Profile     *Profile
}

var mainTmpl = mustPage(`{{define "content"}}
{{if eq .Data.CurrentPage "home"}}
<section class="hero">
	<h1>Welcome back, {{.Username}}</h1>
	<p>Jump into a tournament, browse the store, or hang out in <a href="/main/home#chat">chat</a>.</p>
	<div id="chat" class="chat-panel" data-ws-path="/ws/chat"></div>
	<script src="/static/js/chat.js"></script>
</section>
{{else if eq .Data.CurrentPage "tournaments"}}
<h1>Tournaments</h1>
<table class="listing">
	<tr><th>Name</th><th>Game</th><th>Prize pool</th><th>Starts</th></tr>
	{{range .Data.Tournaments}}
	<tr><td>{{.Name}}</td><td>{{.Game}}</td><td>{{.PrizePool}}</td><td>{{.StartsAt}}</td></tr>
	{{else}}
	<tr><td colspan="4">No tournaments scheduled.</td></tr>
	{{end}}
</table>
{{else if eq .Data.CurrentPage "store"}}
<h1>Store</h1>
<div class="cards">
	{{range .Data.Items}}
	<div class="card">
		{{with .ImageURL}}<img src="{{.}}" alt="">{{end}}
		<h2>{{.Name}}</h2>
		<p>{{.Description}}</p>
		<span class="price">{{.Price}}</span>
	</div>
	{{else}}
	<p>The store is empty right now.</p>
	{{end}}
</div>
{{else if eq .Data.CurrentPage "profile"}}
<h1>Profile</h1>
{{with .Data.Profile}}
<div class="profile">
	<img class="avatar-lg" src="{{.AvatarURL}}" alt="">
	<dl>
		<dt>Username</dt><dd>{{.Username}}</dd>
		<dt>Phone</dt><dd>{{.Phone}}</dd>
		{{with .Email}}<dt>Email</dt><dd>{{.}}</dd>{{end}}
	</dl>
</div>
{{end}}
{{else}}
<h1>About</h1>
<p>Arena is a community portal for competitive gaming: tournaments, a gear store, and live chat.</p>
{{end}}
{{end}}`)

// MainPage renders one of the protected /main/:page views.
func MainPage(data MainData) templ.Component {
	title := map[string]string{
		"home":        "Home",
		"tournaments": "Tournaments",
		"store":       "Store",
		"profile":     "Profile",
		"about":       "About",
	}[data.CurrentPage]
	return component(mainTmpl, title, data)
}

// --- Error ---

type errorData struct {
	Code    int
	Message string
}

var errorTmpl = mustPage(`{{define "content"}}
<section class="error-page">
	<h1>{{.Data.Code}}</h1>
	<p>{{.Data.Message}}</p>
	<a href="/main/home">Back to home</a>
</section>
{{end}}`)

// ErrorPage renders the generic failure page used by the app error handler.
func ErrorPage(code int, message string) templ.Component {
	return component(errorTmpl, "Error", errorData{Code: code, Message: message})
}
