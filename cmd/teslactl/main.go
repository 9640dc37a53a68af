package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/langchou/teslaowner/internal/api/tesla"
	"github.com/langchou/teslaowner/internal/bootstrap"
	"github.com/langchou/teslaowner/internal/config"
	"github.com/langchou/teslaowner/internal/credentials"
)

func writeErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n")
}

func Usage() {
	fmt.Printf("Usage: %s [OPTION...] COMMAND [ARG...]\n", os.Args[0])
	fmt.Println("Run without a COMMAND to start an interactive shell.")
	fmt.Println("")
	fmt.Printf("Available OPTIONs:\n")
	flag.PrintDefaults()
	fmt.Println("")
	fmt.Printf("Available COMMANDs:\n")

	maxLength := 0
	var labels []string
	for command := range commands {
		labels = append(labels, command)
		if len(command) > maxLength {
			maxLength = len(command)
		}
	}
	sort.Strings(labels)
	for _, command := range labels {
		info := commands[command]
		fmt.Printf("  %s%s %s\n", command, strings.Repeat(" ", maxLength-len(command)), info.help)
	}
}

// readPassword 从终端读取密码
func readPassword(label string) (string, error) {
	var w io.Writer
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		w = os.Stdout
	} else if term.IsTerminal(int(os.Stderr.Fd())) {
		w = os.Stderr
	} else {
		return "", fmt.Errorf("no terminal output available for password prompt")
	}

	fmt.Fprintf(w, "%s: ", label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	fmt.Fprintln(w)
	return string(b), nil
}

func runCommand(e *env, args []string, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := execute(ctx, e, args); err != nil {
		switch {
		case errors.Is(err, ErrCommandLineArgs), errors.Is(err, ErrUnknownCommand):
			writeErr("%s (run help for usage)", err)
		case tesla.IsVehicleUnavailable(err):
			writeErr("Vehicle is asleep or offline, try the wake command first")
		default:
			writeErr("Failed to execute command: %s", err)
		}
		return 1
	}
	return 0
}

func runInteractiveShell(e *env, timeout time.Duration) int {
	scanner := bufio.NewScanner(os.Stdin)
	for fmt.Printf("> "); scanner.Scan(); fmt.Printf("> ") {
		args, err := shlex.Split(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			return 0
		}
		if args[0] == "help" {
			Usage()
			continue
		}
		if err != nil {
			writeErr("Invalid command: %s", err)
			continue
		}
		runCommand(e, args, timeout)
	}
	if err := scanner.Err(); err != nil {
		writeErr("Error reading command: %s", err)
		return 1
	}
	return 0
}

func main() {
	status := 1
	defer func() {
		os.Exit(status)
	}()

	var (
		debug          bool
		commandTimeout time.Duration
	)
	flag.Usage = Usage
	flag.BoolVar(&debug, "debug", false, "Enable verbose debugging messages")
	flag.DurationVar(&commandTimeout, "command-timeout", 30*time.Second, "Set timeout for each command")
	flag.Parse()

	args := flag.Args()
	if len(args) == 1 && args[0] == "help" {
		Usage()
		status = 0
		return
	}

	cfg, err := config.Load()
	if err != nil {
		writeErr("Failed to load configuration: %s", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		writeErr("%s", err)
		return
	}

	logger := zap.NewNop()
	if debug || cfg.Debug {
		logger = bootstrap.NewLogger(true)
	}
	defer logger.Sync()

	storage, err := bootstrap.OpenStorage(context.Background(), cfg, logger)
	if err != nil {
		writeErr("Failed to open credential store: %s", err)
		return
	}
	defer storage.Close()

	client := bootstrap.NewClient(cfg, logger, nil)
	session, err := credentials.LoadSession(storage.Store)
	if err != nil {
		writeErr("Failed to read stored session: %s", err)
	} else if session.Token != nil {
		client.SetToken(session.Token)
	}

	e := &env{
		client: client,
		store:  storage.Store,
		out:    os.Stdout,
		prompt: readPassword,
	}

	if len(args) > 0 {
		status = runCommand(e, args, commandTimeout)
	} else {
		status = runInteractiveShell(e, commandTimeout)
	}
}
