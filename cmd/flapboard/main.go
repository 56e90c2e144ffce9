// cmd/flapboard/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/colebrumley/flapboard/internal/board"
	"github.com/colebrumley/flapboard/internal/config"
	"github.com/colebrumley/flapboard/internal/daemon"
	"github.com/colebrumley/flapboard/internal/render"
	"github.com/colebrumley/flapboard/internal/store"
	"github.com/colebrumley/flapboard/internal/symbol"
)

const defaultConfigPath = "config.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "test":
		err = cmdTest()
	case "send":
		err = cmdSend(args)
	case "clear":
		err = cmdClear()
	case "read":
		err = cmdRead()
	case "run":
		err = cmdRun(args)
	case "schedules":
		err = cmdSchedules()
	case "logs":
		err = cmdLogs(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`flapboard - split-flap display control

Usage: flapboard <command> [options]

Commands:
  test              Check connectivity to the board
  send <text>       Render text and send it to the board
  clear             Blank the board
  read              Show what the board currently displays
  run <id>          Fire a schedule immediately
  schedules         List configured schedules
  logs [n]          Show the last n sent messages (default 20)`)
}

func configPath() string {
	if p := os.Getenv("FLAPBOARD_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

func loadBoard() (*board.Client, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return board.New(cfg.Board.LocalURL, cfg.Board.LocalKey,
		time.Duration(cfg.Board.TimeoutSeconds)*time.Second)
}

func openStore() (*store.Store, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return store.Open(cfg.DB.Path)
}

func cmdTest() error {
	client, err := loadBoard()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if !client.TestConnection(ctx) {
		return fmt.Errorf("board is not reachable")
	}
	fmt.Println("Board is reachable")
	return nil
}

func cmdSend(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: flapboard send <text>")
	}
	text := strings.Join(args, " ")

	client, err := loadBoard()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := client.Send(ctx, render.RenderMessage(text, true)); err != nil {
		return err
	}
	fmt.Println("Sent")
	return nil
}

func cmdClear() error {
	client, err := loadBoard()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := client.Clear(ctx); err != nil {
		return err
	}
	fmt.Println("Cleared")
	return nil
}

func cmdRead() error {
	client, err := loadBoard()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	grid, err := client.Current(ctx)
	if err != nil {
		return err
	}

	for _, row := range grid {
		var line strings.Builder
		for _, code := range row {
			line.WriteString(symbol.Decode(code))
		}
		fmt.Println(strings.TrimRight(line.String(), " "))
	}
	return nil
}

func cmdRun(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: flapboard run <schedule-id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid schedule id %q", args[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := daemon.New(configPath()).RunSchedule(ctx, id); err != nil {
		return err
	}
	fmt.Println("Sent")
	return nil
}

func cmdSchedules() error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	schedules, err := st.Schedules(false)
	if err != nil {
		return err
	}
	if len(schedules) == 0 {
		fmt.Println("No schedules configured")
		return nil
	}

	fmt.Printf("%-4s %-22s %-11s %-16s %-8s %s\n", "ID", "NAME", "TYPE", "CRON", "ENABLED", "LAST RUN")
	for _, s := range schedules {
		lastRun := "never"
		if s.LastRun != nil {
			lastRun = s.LastRun.Format(time.RFC3339)
		}
		fmt.Printf("%-4d %-22s %-11s %-16s %-8t %s\n",
			s.ID, s.Name, s.Type, s.CronExpr, s.Enabled, lastRun)
	}
	return nil
}

func cmdLogs(args []string) error {
	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		limit = n
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.MessageLog(limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No messages logged")
		return nil
	}

	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "FAILED"
		}
		content := strings.ReplaceAll(e.Content, "\n", " / ")
		if len(content) > 60 {
			content = content[:60] + "..."
		}
		fmt.Printf("%s  %-11s %-6s %s\n", e.SentAt.Format("2006-01-02 15:04"), e.Type, status, content)
	}
	return nil
}
