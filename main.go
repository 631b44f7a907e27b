package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"expert/assistant"
	"expert/chat"
	"expert/config"
	"expert/data"
	server "expert/http"
	"expert/logger"
	"expert/session"
	"expert/tui"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

var (
	prompt   string
	strict   bool
	serve    bool
	port     int
	secure   bool
	failures int
	copyOut  bool
)

func init() {
	flag.StringVar(
		&prompt,
		"prompt",
		"",
		"Ask a single question and exit",
	)
	flag.BoolVar(&strict, "strict", false, "Force document search for -prompt")
	flag.BoolVar(&serve, "serve", false, "Enable server mode")
	flag.IntVar(&port, "port", 8080, "Port to listen on")
	flag.BoolVar(&secure, "secure", false, "Enable HTTPS")
	flag.IntVar(&failures, "failures", 0, "List the N most recent failed turns and exit")
	flag.BoolVar(&copyOut, "copy", false, "Copy the answer of -prompt to the clipboard")
}

func main() {
	flag.Parse()
	os.Exit(run())
}

// run returns the exit code so deferred cleanup happens before os.Exit.
func run() int {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}

	if err := logger.Init(cfg.LogFile); err != nil {
		log.Printf("could not open log file %s: %v", cfg.LogFile, err)
	}

	diagnostics, err := data.Open(cfg.DiagnosticsBackend, cfg.DiagnosticsDSN)
	if err != nil {
		logger.Screen(fmt.Sprintf("diagnostics disabled: %v", err), color.RGB(250, 150, 150))
		logger.Debug.Printf("diagnostics disabled: %v", err)
		diagnostics = nil
	} else {
		defer diagnostics.Close()
	}

	if failures > 0 {
		if diagnostics == nil {
			return 1
		}
		return printFailures(diagnostics, failures)
	}

	if err := cfg.Validate(); err != nil {
		log.Printf("config: %v", err)
		return 1
	}

	client := assistant.NewClient(cfg.ClientOptions())
	controller := chat.NewController(client, cfg.AssistantID, diagnostics)

	if serve {
		secret := cfg.ServerSecret
		if secret == "" {
			secret = uuid.NewString()
			logger.Screen("EXPERT_SERVER_SECRET not set, tokens will not survive a restart", color.RGB(250, 200, 100))
		}

		err := server.Run(secure, port, controller, session.NewStore(client), secret, cfg.ServerPassword)
		if err != nil {
			println(fmt.Sprintf("\nerr: %v", err))
			return 1
		}
		return 0
	}

	s := session.New(client)

	if prompt != "" {
		if strict {
			prompt = chat.StrictToken + " " + prompt
		}
		cliResponseHandler := CliResponseHandler{CopyAnswer: copyOut}
		answer, err := controller.HandleTurn(ctx, s, prompt)
		cliResponseHandler.FinalText(answer, err)
		if err != nil {
			return 1
		}
		return 0
	}

	err = tui.Run(tui.TUIConfig{
		Controller: controller,
		Session:    s,
	})
	if err != nil {
		log.Printf("tui: %v", err)
		return 1
	}
	return 0
}

func printFailures(diagnostics data.DiagnosticsRepository, limit int) int {
	records, err := diagnostics.GetRecentFailures(limit)
	if err != nil {
		logger.Screen(fmt.Sprintf("could not read failures: %v", err), color.RGB(250, 150, 150))
		return 1
	}

	if len(records) == 0 {
		color.RGB(150, 150, 150).Println("no failures recorded")
		return 0
	}

	for _, f := range records {
		color.RGB(250, 150, 150).Printf("%s  %-16s", f.Created.Local().Format("2006-01-02 15:04:05"), f.Kind)
		color.RGB(150, 150, 150).Printf(" session=%s context=%s job=%s status=%s code=%s\n",
			f.SessionId, f.ContextId, f.JobId, f.Status, f.Code)
		fmt.Printf("    %s\n", f.Message)
		if f.Steps != "" {
			color.RGB(150, 150, 150).Printf("    steps: %s\n", f.Steps)
		}
	}
	return 0
}
