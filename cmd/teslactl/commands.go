package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/langchou/teslaowner/internal/api/tesla"
	"github.com/langchou/teslaowner/internal/credentials"
)

var (
	ErrCommandLineArgs = errors.New("invalid command line arguments")
	ErrUnknownCommand  = errors.New("unknown command")
)

// env 命令执行所需的依赖
type env struct {
	client *tesla.Client
	store  credentials.Store
	out    io.Writer
	// prompt 读取密码，不回显
	prompt func(label string) (string, error)
}

type Argument struct {
	name string
	help string
}

type Handler func(ctx context.Context, e *env, args []string) error

type Command struct {
	help         string
	requiresAuth bool
	args         []Argument
	optional     []Argument
	handler      Handler
}

var commands = map[string]*Command{
	"login": {
		help:     "Sign in and store the access token",
		args:     []Argument{{name: "EMAIL", help: "account email"}},
		optional: []Argument{{name: "PASSWORD", help: "account password, prompted when omitted"}},
		handler:  login,
	},
	"logout": {
		help:    "Forget the stored access token",
		handler: logout,
	},
	"vehicles": {
		help:         "List vehicles on the account",
		requiresAuth: true,
		handler:      listVehicles,
	},
	"vehicle": {
		help:         "Show vehicle data as JSON",
		requiresAuth: true,
		args:         []Argument{{name: "ID", help: "vehicle id from the vehicles command"}},
		handler:      showVehicle,
	},
}

func init() {
	for _, c := range tesla.Commands {
		commands[string(c)] = &Command{
			help:         fmt.Sprintf("Send the %s command", c),
			requiresAuth: true,
			args:         []Argument{{name: "ID", help: "vehicle id from the vehicles command"}},
			handler:      sendCommand(c),
		}
	}
}

// execute 校验参数并运行命令
func execute(ctx context.Context, e *env, args []string) error {
	if len(args) == 0 {
		return ErrCommandLineArgs
	}
	info, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}

	rest := args[1:]
	if len(rest) < len(info.args) || len(rest) > len(info.args)+len(info.optional) {
		return fmt.Errorf("%w: %s expects %d to %d arguments", ErrCommandLineArgs, args[0],
			len(info.args), len(info.args)+len(info.optional))
	}
	if info.requiresAuth && e.client.Token() == nil {
		return fmt.Errorf("not logged in, run the login command first")
	}
	return info.handler(ctx, e, rest)
}

func parseVehicleID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid vehicle id %q", ErrCommandLineArgs, s)
	}
	return id, nil
}

func login(ctx context.Context, e *env, args []string) error {
	email := args[0]
	var password string
	if len(args) > 1 {
		password = args[1]
	} else {
		p, err := e.prompt("Password")
		if err != nil {
			return err
		}
		password = p
	}

	token, err := e.client.GetToken(ctx, email, password)
	if err != nil {
		return err
	}
	if err := credentials.SaveSession(e.store, credentials.Session{Token: token, Email: email, Password: password}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(e.out, "Logged in as %s\n", email)
	return nil
}

func logout(_ context.Context, e *env, _ []string) error {
	e.client.SetToken(nil)
	return credentials.SaveToken(e.store, nil)
}

func listVehicles(ctx context.Context, e *env, _ []string) error {
	vehicles, err := e.client.GetVehicles(ctx)
	if err != nil {
		return err
	}
	if len(vehicles) == 0 {
		fmt.Fprintln(e.out, "You have no vehicles for this account")
		return nil
	}
	for _, v := range vehicles {
		name := v.Name()
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(e.out, "%-20d %-24s %-18s %s\n", v.ID, name, v.VIN, v.State)
	}
	return nil
}

func showVehicle(ctx context.Context, e *env, args []string) error {
	id, err := parseVehicleID(args[0])
	if err != nil {
		return err
	}
	detail, err := e.client.GetVehicle(ctx, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(detail)
}

func sendCommand(command tesla.Command) Handler {
	return func(ctx context.Context, e *env, args []string) error {
		id, err := parseVehicleID(args[0])
		if err != nil {
			return err
		}
		ok, err := e.client.Execute(ctx, command, id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("vehicle rejected %s", command)
		}
		fmt.Fprintf(e.out, "%s: ok\n", command)
		return nil
	}
}
