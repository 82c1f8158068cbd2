package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jaekwang-park/listo/internal/cognito"
	"github.com/jaekwang-park/listo/internal/service"
)

type loginView struct {
	email      textinput.Model
	password   textinput.Model
	focused    int
	notice     string
	err        error
	submitting bool
}

func newLoginView() loginView {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email     "
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password  "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return loginView{email: email, password: password}
}

func (v *loginView) reset(notice string) {
	v.password.Reset()
	v.notice = notice
	v.err = nil
	v.submitting = false
	v.focused = 0
}

func (v *loginView) focus() tea.Cmd {
	if v.focused == 0 {
		v.password.Blur()
		return v.email.Focus()
	}
	v.email.Blur()
	return v.password.Focus()
}

func (m *Model) updateLogin(msg tea.Msg) tea.Cmd {
	v := &m.login
	if k, ok := msg.(tea.KeyMsg); ok && !v.submitting {
		switch {
		case key.Matches(k, m.keys.Back):
			return tea.Quit
		case key.Matches(k, m.keys.Tab), k.String() == "up", k.String() == "down":
			v.focused = 1 - v.focused
			return v.focus()
		case k.String() == "enter":
			if v.focused == 0 {
				v.focused = 1
				return v.focus()
			}
			return m.submitLogin()
		}
	}

	var cmd tea.Cmd
	if v.focused == 0 {
		v.email, cmd = v.email.Update(msg)
	} else {
		v.password, cmd = v.password.Update(msg)
	}
	return cmd
}

func (m *Model) submitLogin() tea.Cmd {
	v := &m.login
	email, password := strings.TrimSpace(v.email.Value()), v.password.Value()
	if email == "" || password == "" {
		v.err = errors.New("email and password are required")
		return nil
	}
	v.err = nil
	v.submitting = true
	ctx, auth := m.ctx, m.app.Auth
	return func() tea.Msg {
		out, err := auth.Login(ctx, email, password)
		return loggedInMsg{out: out, err: err}
	}
}

func loginErrorText(err error) string {
	switch {
	case errors.Is(err, cognito.ErrNotAuthorized):
		return "Incorrect email or password."
	case errors.Is(err, cognito.ErrUserNotConfirmed):
		return "Confirm your account first: listo confirm --email <email> --code <code>"
	case errors.Is(err, service.ErrLoginUnavailable):
		return "Login is not available in dev auth mode."
	default:
		return err.Error()
	}
}

func (m *Model) viewLogin() string {
	v := &m.login
	var b strings.Builder
	b.WriteString(titleStyle.Render("Listo") + "\n\n")
	if v.notice != "" {
		b.WriteString(v.notice + "\n\n")
	}
	b.WriteString(v.email.View() + "\n")
	b.WriteString(v.password.View() + "\n\n")
	switch {
	case v.submitting:
		b.WriteString(m.spinner.View() + " Logging in…\n")
	case v.err != nil:
		b.WriteString(errorStyle.Render(loginErrorText(v.err)) + "\n")
	default:
		b.WriteString("\n")
	}
	b.WriteString("\n" + helpLine(m.keys.Tab, key.NewBinding(key.WithHelp("enter", "log in")), m.keys.Back))
	return dialogStyle.Render(b.String())
}
