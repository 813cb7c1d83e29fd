// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration inspection and setup.
//
// Usage:
//
//	pocketllm config [show]
//	pocketllm config path
//	pocketllm config init [--force]

package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/jeranaias/pocketllm-tui/internal/config"
)

// ConfigPathData is the data of "config path".
type ConfigPathData struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// HandleConfig dispatches the config subcommands. It runs without the
// credential store so a broken database never blocks fixing the config.
func HandleConfig(args Args, stdio Stdio) error {
	p := args.Parser
	emit := func(command string, data interface{}, human func(w io.Writer)) error {
		if args.JSON {
			return NewJSONResponse(command, data).Print(stdio.Out)
		}
		human(stdio.Out)
		return nil
	}

	switch sub := p.Subcommand(); sub {
	case "", "show":
		cfg, err := loadConfig(args)
		if err != nil {
			return err
		}
		return emit("config show", cfg, func(w io.Writer) {
			_ = cfg.Encode(w)
		})

	case "path":
		data, err := configPath(args)
		if err != nil {
			return err
		}
		return emit("config path", data, func(w io.Writer) {
			state := DimStyle.Render("(not created)")
			if data.Exists {
				state = SuccessStyle.Render("(exists)")
			}
			fmt.Fprintln(w, data.Path, state)
		})

	case "init":
		data, err := configPath(args)
		if err != nil {
			return err
		}
		if data.Exists && !p.BoolFlag("force") {
			return &UsageError{Command: "config init", Reason: data.Path + " already exists", Example: "pocketllm config init --force"}
		}
		cfg := config.Default()
		if args.BaseURL != "" {
			cfg.Server.BaseURL = args.BaseURL
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if args.ConfigPath != "" {
			err = config.SaveTOML(cfg, args.ConfigPath)
		} else {
			err = config.Save(cfg)
		}
		if err != nil {
			return err
		}
		data.Exists = true
		return emit("config init", data, func(w io.Writer) {
			fmt.Fprintf(w, "%s Wrote %s\n", SuccessStyle.Render("[OK]"), data.Path)
		})

	default:
		return &UsageError{Command: "config", Reason: fmt.Sprintf("unknown subcommand %q", sub), Example: "pocketllm config show"}
	}
}

func configPath(args Args) (ConfigPathData, error) {
	path := args.ConfigPath
	if path == "" {
		var err error
		if path, err = config.ConfigPathTOML(); err != nil {
			return ConfigPathData{}, err
		}
	}
	_, err := os.Stat(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ConfigPathData{}, err
	}
	return ConfigPathData{Path: path, Exists: err == nil}, nil
}
