package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"screening-onboarding-be/internal/bootstrap"
	"screening-onboarding-be/internal/config"
	"screening-onboarding-be/internal/dto"
	"screening-onboarding-be/internal/pkg/logger"
	"screening-onboarding-be/internal/repository/memory"
	"screening-onboarding-be/internal/service"
	"screening-onboarding-be/pkg/database"
	"screening-onboarding-be/pkg/dialogue"
	"screening-onboarding-be/pkg/workflow/catalog"

	"github.com/fatih/color"
	"gorm.io/gorm"
)

func main() {
	workflowName := flag.String("workflow", catalog.Default, "workflow to run")
	locale := flag.String("locale", "", "conversation locale (en or de)")
	flag.Parse()

	cfg := config.Load()
	log := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	defer log.Sync()

	var db *gorm.DB
	if bootstrap.NeedsDatabase(cfg) {
		conn, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			color.Red("Failed to connect to database: %v", err)
			os.Exit(1)
		}
		db = conn
	}

	model, err := bootstrap.NewLLM(cfg)
	if err != nil {
		color.Red("Failed to initialise LLM: %v", err)
		os.Exit(1)
	}
	retrieval, err := bootstrap.NewRetrieval(cfg, db, log)
	if err != nil {
		color.Red("Failed to initialise retrieval: %v", err)
		os.Exit(1)
	}
	defer retrieval.Index.Close()

	cat, err := catalog.New(bootstrap.NewWorkflowDeps(cfg, model, retrieval, log), log)
	if err != nil {
		color.Red("Failed to load workflows: %v", err)
		os.Exit(1)
	}

	// Events have nowhere to go in a terminal session.
	threads := service.NewThreadService(cat, memory.NewThreadRepository(cfg.Threads.TTL), nil, cfg.Workflow.Locale, logger.NewNop())

	ctx := context.Background()
	res, err := threads.Start(ctx, &dto.StartThreadRequest{Workflow: *workflowName, Locale: *locale})
	if err != nil {
		color.Red("Failed to start %s: %v", *workflowName, err)
		os.Exit(1)
	}
	color.Cyan("Thread %s (%s). Type /quit to leave, /transcript to replay.", res.Id, res.Workflow)
	render(res)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for res.Status != string(dialogue.Terminated) {
		fmt.Print(color.HiBlackString("> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "/quit", "/exit":
			return
		case "/transcript":
			t, err := threads.Transcript(ctx, res.Id)
			if err != nil {
				color.Red("%v", err)
				continue
			}
			for _, m := range t.Messages {
				printMessage(m)
			}
			continue
		}

		req, err := buildRequest(res.Request, line)
		if err != nil {
			color.Red("%v", err)
			continue
		}
		next, err := threads.Advance(ctx, res.Id, req)
		if err != nil {
			color.Red("Rejected: %v", err)
			continue
		}
		res = next
		render(res)
	}
	color.Cyan("Conversation ended.")
}

func render(res *dto.ThreadResponse) {
	for _, m := range res.Replies {
		if m.Role == string(dialogue.RoleAssistant) {
			printMessage(m)
		}
	}
	if res.Request != nil {
		color.Yellow("[%s] %s", res.Request.Kind, res.Request.Prompt)
	}
}

func printMessage(m dto.MessageResponse) {
	if m.Role == string(dialogue.RoleUser) {
		color.Blue("you: %s", m.Text)
		return
	}
	color.Green("%s", m.Text)
}

// buildRequest turns a typed line into a user turn or, while suspended, into
// the resume payload the pending request expects. Lines starting with "{"
// are sent verbatim.
func buildRequest(pending *dto.SuspendRequestResponse, line string) (*dto.AdvanceThreadRequest, error) {
	if pending == nil {
		return &dto.AdvanceThreadRequest{Text: line}, nil
	}
	if strings.HasPrefix(line, "{") {
		if !json.Valid([]byte(line)) {
			return nil, fmt.Errorf("invalid JSON payload")
		}
		return &dto.AdvanceThreadRequest{Payload: json.RawMessage(line)}, nil
	}

	var payload map[string]interface{}
	lower := strings.ToLower(line)
	switch pending.Kind {
	case dialogue.SuspendQuestionOrContinue:
		if line == "" || lower == "continue" {
			payload = map[string]interface{}{"continue": true}
		} else {
			payload = map[string]interface{}{"question": line}
		}
	case dialogue.SuspendAPIMetadata:
		if !strings.HasPrefix(line, "@") {
			return nil, fmt.Errorf("upload a file with @path/to/file")
		}
		path := strings.TrimPrefix(line, "@")
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		payload = map[string]interface{}{
			dialogue.FieldFilename:    filepath.Base(path),
			dialogue.FieldFileContent: string(content),
		}
	default:
		switch {
		case lower == dialogue.ResponseYes || lower == dialogue.ResponseNo || lower == dialogue.ResponseSkip:
			payload = map[string]interface{}{"response": lower}
		case strings.HasSuffix(line, "?") || pending.Kind == dialogue.SuspendOffer:
			payload = map[string]interface{}{"question": line}
		default:
			payload = map[string]interface{}{"text": line}
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &dto.AdvanceThreadRequest{Payload: raw}, nil
}
