// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - login, register, logout and whoami.

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeranaias/pocketllm-tui/internal/api"
	"github.com/jeranaias/pocketllm-tui/internal/model"
)

// HandleLogin signs in and stores the credentials.
func HandleLogin(ctx context.Context, env *Env) error {
	return authenticate(ctx, env, "login")
}

// HandleRegister creates an account and signs in.
func HandleRegister(ctx context.Context, env *Env) error {
	return authenticate(ctx, env, "register")
}

func authenticate(ctx context.Context, env *Env, op string) error {
	email, password, err := readCredentials(env)
	if err != nil {
		return err
	}

	svc := env.Auth()
	var id model.Identity
	if op == "register" {
		id, err = svc.Register(ctx, email, password)
	} else {
		id, err = svc.Login(ctx, email, password)
	}
	if err != nil {
		return err
	}

	return env.emit(op, WhoamiData{LoggedIn: true, UserID: id.UserID, Email: id.Email, BaseURL: env.Client.BaseURL()}, func(w io.Writer) {
		fmt.Fprintf(w, "%s Signed in as %s\n", SuccessStyle.Render("[OK]"), id.Email)
	})
}

// readCredentials takes the email from the first argument or a prompt, and
// the password from a hidden prompt on a terminal or from the next input
// line otherwise.
func readCredentials(env *Env) (email, password string, err error) {
	p := env.Prompter()
	email = env.Args.Parser.Positional(0)
	if email == "" {
		if email, err = p.Ask("Email: "); err != nil {
			return "", "", fmt.Errorf("failed to read email: %w", err)
		}
	}

	if env.IsTTY() {
		fmt.Fprint(env.Err, "Password: ")
		password, err = readPassword()
		fmt.Fprintln(env.Err)
	} else {
		password, err = p.Ask("")
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	return email, password, nil
}

// HandleLogout forgets the stored credentials.
func HandleLogout(_ context.Context, env *Env) error {
	if err := env.Auth().Logout(); err != nil {
		return err
	}
	return env.emit("logout", WhoamiData{BaseURL: env.Client.BaseURL()}, func(w io.Writer) {
		fmt.Fprintln(w, "Logged out.")
	})
}

// HandleWhoami shows the stored identity and whether the backend answers.
func HandleWhoami(ctx context.Context, env *Env) error {
	id, err := env.Auth().Current()
	if err != nil {
		return err
	}
	data := WhoamiData{LoggedIn: id.LoggedIn(), UserID: id.UserID, Email: id.Email, BaseURL: env.Client.BaseURL()}

	healthCtx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	if status, err := env.Client.Health(healthCtx); err != nil {
		data.Backend = "unreachable: " + api.Describe(err)
	} else {
		data.Backend = status
	}

	return env.emit("whoami", data, func(w io.Writer) {
		backend := data.BaseURL + " " + SuccessStyle.Render("("+data.Backend+")")
		if strings.HasPrefix(data.Backend, "unreachable") {
			backend = data.BaseURL + " " + ErrorStyle.Render("("+data.Backend+")")
		}
		if !data.LoggedIn {
			fmt.Fprintln(w, DimStyle.Render("Not logged in."))
			fmt.Fprintln(w, RenderField("Backend", backend))
			return
		}
		fmt.Fprintln(w, RenderField("Email", data.Email))
		fmt.Fprintln(w, RenderField("User ID", data.UserID))
		fmt.Fprintln(w, RenderField("Backend", backend))
	})
}

const healthTimeout = 3 * time.Second
