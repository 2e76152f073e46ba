// Package agent implements chat processing: it routes free-text user
// input to the configured remote provider or the deterministic local
// fallback, extracts and dispatches an embedded device action, and
// maintains the shared conversation history.
package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"aios/internal/action"
	"aios/internal/device"
	"aios/internal/history"
	"aios/internal/provider"
)

// Engine processes chat turns. Safe for concurrent use; the conversation
// store serializes its own access and no lock is held across provider or
// device calls.
type Engine struct {
	provider   provider.Client
	fallback   *fallback
	dispatcher *action.Dispatcher
	store      *history.Store
	archive    *history.Archive
	sessionID  string
	timeout    time.Duration
	logger     *zap.Logger
}

// Options configures an Engine.
type Options struct {
	// Provider is the remote completion client; nil selects the local
	// fallback for every chat.
	Provider provider.Client

	// Controller and Dispatcher are the device capability surface.
	Controller device.Controller
	Dispatcher *action.Dispatcher

	// Store is the shared bounded conversation log.
	Store *history.Store

	// Archive, when set, persistently records every turn. Archive
	// failures are logged and never surfaced to clients.
	Archive *history.Archive

	// Timeout bounds each provider call. Exceeding it falls back to the
	// local interpreter.
	Timeout time.Duration

	Logger *zap.Logger
}

// New creates an Engine. When an archive is configured, a fresh session
// is created for the daemon's lifetime.
func New(opts Options) (*Engine, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	e := &Engine{
		provider:   opts.Provider,
		fallback:   newFallback(opts.Controller, opts.Dispatcher),
		dispatcher: opts.Dispatcher,
		store:      opts.Store,
		archive:    opts.Archive,
		timeout:    opts.Timeout,
		logger:     opts.Logger,
	}

	if opts.Archive != nil {
		sess, err := opts.Archive.CreateSession("")
		if err != nil {
			return nil, err
		}
		e.sessionID = sess.ID
	}

	return e, nil
}

// Chat turns user text into an assistant reply, executing at most one
// embedded device action. Exactly two turns (user, assistant) are
// appended to the conversation store per call. Chat never fails: every
// provider error is recovered by the local fallback.
func (e *Engine) Chat(ctx context.Context, text string) (string, *action.Result) {
	reply, result := e.respond(ctx, text)

	if result == nil {
		if desc, ok := ExtractAction(reply); ok {
			r := e.dispatcher.Execute(ctx, desc)
			result = &r
		}
	}

	e.store.Append(history.Turn{Role: history.RoleUser, Content: text})
	e.store.Append(history.Turn{Role: history.RoleAssistant, Content: reply})
	e.archiveTurns(text, reply)

	return reply, result
}

// respond produces the assistant text, from the remote provider when one
// is configured and the call succeeds, otherwise from the fallback. A
// fallback intent that executed directly also hands back its result.
func (e *Engine) respond(ctx context.Context, text string) (string, *action.Result) {
	if e.provider != nil {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		reply, err := e.provider.Complete(callCtx, systemPrompt, e.store.Snapshot(), text)
		if err == nil {
			return reply, nil
		}
		e.logger.Warn("provider call failed, using local fallback", zap.Error(err))
	}

	return e.fallback.Interpret(ctx, text)
}

// ClearHistory empties the conversation store. The archive keeps its
// records.
func (e *Engine) ClearHistory() {
	e.store.Clear()
}

func (e *Engine) archiveTurns(userText, reply string) {
	if e.archive == nil {
		return
	}
	for _, turn := range []history.Turn{
		{Role: history.RoleUser, Content: userText},
		{Role: history.RoleAssistant, Content: reply},
	} {
		if _, err := e.archive.AppendMessage(e.sessionID, turn); err != nil {
			e.logger.Warn("failed to archive turn", zap.Error(err))
			return
		}
	}
}
