package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"ayyy/history"
	"ayyy/internal/config"
	"ayyy/internal/logging"
	"ayyy/internal/memstore"
	"ayyy/internal/provider"
	"ayyy/internal/runner"
	"ayyy/internal/telemetry"
	"ayyy/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Load prior transcript if present; a broken file means a fresh session,
	// not a refusal to start.
	persisted, err := history.Load(cfg.HistoryFile)
	if err != nil {
		logger.Warn("failed to load chat history, starting fresh",
			zap.String("path", cfg.HistoryFile), zap.Error(err))
		persisted = nil
	}
	conv := history.ToChat(persisted)

	// Memory is best-effort: a store that will not open just means the memory
	// tools are absent this session.
	var store *memstore.Store
	if cfg.EnableMemory {
		store, err = memstore.Open(cfg.MemoryDB)
		if err != nil {
			logger.Warn("memory store unavailable, continuing without memory tools",
				zap.String("path", cfg.MemoryDB), zap.Error(err))
			store = nil
		} else {
			defer func() { _ = store.Close() }()
		}
	}

	defs := tools.Registry(cfg, store)
	r := runner.New(provider.NewClient(cfg), defs)

	logger.Info("session ready",
		zap.String("base_url", cfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.Int("tools", len(defs)))

	// Graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigch)
	go func() {
		<-sigch
		fmt.Println("\nExiting...")
		cancel()
	}()

	fmt.Printf("Chat with %s (type 'quit' or 'exit' to leave)\n", cfg.Model)
	fmt.Printf("Tools: %s\n", strings.Join(tools.Names(defs), ", "))

	scanner := bufio.NewScanner(os.Stdin)

	// stdin reader goroutine -> lines into channel
	inputCh := make(chan string)
	go func() {
		for scanner.Scan() {
			inputCh <- scanner.Text()
		}
		close(inputCh)
	}()

outer:
	for {
		fmt.Print("\u001b[94mYou\u001b[0m: ")
		var (
			user string
			ok   bool
		)
		select {
		case <-ctx.Done():
			break outer
		case user, ok = <-inputCh:
			if !ok {
				break outer
			}
		}

		switch strings.TrimSpace(strings.ToLower(user)) {
		case "":
			continue
		case "quit", "exit":
			break outer
		}

		turnCtx := telemetry.WithTurnID(ctx, "turn-"+uuid.NewString())
		telemetry.EmitLocalFeatures(turnCtx, user)

		conv = append(conv, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: user,
		})

		for {
			msg, toolResults, err := r.RunOneStep(turnCtx, cfg.Model, conv)
			if err != nil {
				logger.Error("turn failed", zap.Error(err))
				break
			}
			conv = append(conv, *msg)
			if len(toolResults) == 0 {
				break // done with assistant turn
			}
			conv = append(conv, toolResults...)
		}

		// Persist the full transcript, tool exchanges included, so a reloaded
		// session is still a valid conversation prefix.
		persisted = persisted[:0]
		for _, m := range conv {
			persisted = append(persisted, history.FromChat(m))
		}
		if err := history.Save(cfg.HistoryFile, persisted); err != nil {
			logger.Warn("failed to save chat history",
				zap.String("path", cfg.HistoryFile), zap.Error(err))
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("stdin read error", zap.Error(err))
	}
}
