package service

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	fiberadaptor "github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/spf13/viper"

	"github.com/crumbworks/genchat/pkg/codegen"
	"github.com/crumbworks/genchat/pkg/errors"
	"github.com/crumbworks/genchat/pkg/memory"
	"github.com/crumbworks/genchat/pkg/provider"
	"github.com/crumbworks/genchat/pkg/types"
)

// Session memory layout. Each chat turn refreshes both entries; history
// outlives the interaction marker so a returning client can resume a
// conversation whose "presence" already lapsed.
const (
	KeyConversationHistory = "conversation_history"
	KeyLastInteraction     = "last_interaction"

	ConversationTTL    = 3600 * time.Second
	LastInteractionTTL = 1800 * time.Second
)

/*
ChatServer exposes the chat proxy over HTTP: streaming chat, session
memory management, and code generation. The memory store is injected so
the server owns no global state.
*/
type ChatServer struct {
	app      *fiber.App
	store    *memory.InMemoryStore
	detector *codegen.Detector

	mu        sync.Mutex
	provider  provider.Interface
	generator *codegen.Generator
}

/*
NewChatServer constructs a server around the supplied store and provider
and registers all routes. A nil provider defers construction to the first
request, so a missing credential surfaces as a 400 on the chat endpoints
rather than preventing startup. Call Start to begin listening.
*/
func NewChatServer(store *memory.InMemoryStore, prvdr provider.Interface) *ChatServer {
	srv := &ChatServer{
		app: fiber.New(fiber.Config{
			AppName:           "genchat",
			ServerHeader:      "Genchat-Server",
			StreamRequestBody: true,
			ErrorHandler:      errorHandler,
		}),
		store:    store,
		detector: codegen.NewDetector(),
	}

	if prvdr != nil {
		srv.provider = prvdr
		srv.generator = codegen.NewGenerator(prvdr)
	}

	srv.app.Use(logger.New(logger.Config{
		// Skip logging for the stream endpoint to reduce noise
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/chat/stream"
		},
	}), healthcheck.NewHealthChecker(), cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowCredentials: true,
	}))

	srv.app.Get("/", srv.handleRoot)
	srv.app.Get("/chat/health", srv.handleHealth)
	srv.app.Post("/chat/stream", srv.handleChatStream)
	srv.app.Post("/chat/generate", srv.handleGenerate)
	srv.app.Post("/chat/sessions", srv.handleCreateSession)
	srv.app.Get("/chat/sessions/:id/history", srv.handleSessionHistory)
	srv.app.Delete("/chat/sessions/:id", srv.handleDeleteSession)
	srv.app.Get("/chat/memory/stats", srv.handleMemoryStats)
	srv.app.Post("/chat/memory/cleanup", srv.handleMemoryCleanup)

	return srv
}

func (srv *ChatServer) Start(addr string) error {
	return srv.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// resolve returns the provider and generator, building them from config on
// first use when no provider was injected.
func (srv *ChatServer) resolve() (provider.Interface, *codegen.Generator, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.provider == nil {
		prvdr, err := provider.FromConfig()
		if err != nil {
			return nil, nil, err
		}
		srv.provider = prvdr
		srv.generator = codegen.NewGenerator(prvdr)
	}

	return srv.provider, srv.generator, nil
}

func (srv *ChatServer) handleRoot(ctx fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"message": "genchat is ready"})
}

func (srv *ChatServer) handleHealth(ctx fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"status": "healthy", "service": "genchat"})
}

/*
handleChatStream streams model output as newline-delimited JSON events.
The request is resolved against session memory before the provider call:
an omitted history is restored from the session, and the updated history
is written back once streaming completes. Upstream failures surface as an
in-band error event so partial output already on the wire terminates
cleanly instead of dropping the connection.
*/
func (srv *ChatServer) handleChatStream(ctx fiber.Ctx) error {
	var request types.ChatRequest

	if err := ctx.Bind().Body(&request); err != nil {
		return errors.ErrInvalidRequest.WithMessagef("invalid request body: %v", err)
	}

	if request.Message == "" {
		return errors.ErrInvalidRequest.WithMessagef("message is required")
	}

	prvdr, _, err := srv.resolve()
	if err != nil {
		return err
	}

	sessionID := request.SessionID
	if sessionID == "" {
		sessionID = srv.store.CreateSession("")
	}

	history := request.ConversationHistory
	if len(history) == 0 {
		if stored, ok := srv.store.Retrieve(sessionID, KeyConversationHistory); ok {
			if turns, ok := stored.([]types.ChatMessage); ok {
				history = turns
			}
		}
	}

	messages := append(history, types.ChatMessage{Role: "user", Content: request.Message})
	codeGeneration := srv.detector.IsProgrammingQuestion(request.Message)

	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")

		flusher, _ := w.(http.Flusher)
		encoder := json.NewEncoder(w)

		writeEvent := func(event types.StreamEvent) {
			if err := encoder.Encode(event); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}

		full, err := prvdr.Stream(r.Context(), messages, func(delta string) {
			writeEvent(types.NewChunkEvent(delta))
		})
		if err != nil {
			log.Error("chat stream failed", "error", err, "session_id", sessionID)
			writeEvent(types.NewErrorEvent("Error: " + err.Error()))
			return
		}

		updated := append(messages, types.ChatMessage{Role: "assistant", Content: full})
		srv.store.Store(sessionID, KeyConversationHistory, updated, ConversationTTL, nil)
		srv.store.Store(
			sessionID, KeyLastInteraction,
			time.Now().UTC().Format(time.RFC3339), LastInteractionTTL, nil,
		)

		writeEvent(types.StreamEvent{
			Type:           types.EventComplete,
			FullResponse:   full,
			MessageCount:   len(updated),
			SessionID:      sessionID,
			CodeGeneration: codeGeneration,
		})
	}

	return fiberadaptor.HTTPHandler(http.HandlerFunc(handler))(ctx)
}

func (srv *ChatServer) handleGenerate(ctx fiber.Ctx) error {
	var request types.CodeGenerationRequest

	if err := ctx.Bind().Body(&request); err != nil {
		return errors.ErrInvalidRequest.WithMessagef("invalid request body: %v", err)
	}

	if request.Prompt == "" {
		return errors.ErrInvalidRequest.WithMessagef("prompt is required")
	}

	_, generator, err := srv.resolve()
	if err != nil {
		return err
	}

	return ctx.JSON(generator.Generate(ctx.Context(), request.Prompt))
}

func (srv *ChatServer) handleCreateSession(ctx fiber.Ctx) error {
	sessionID := srv.store.CreateSession("")
	return ctx.Status(fiber.StatusCreated).JSON(types.SessionResponse{SessionID: sessionID})
}

func (srv *ChatServer) handleSessionHistory(ctx fiber.Ctx) error {
	sessionID := ctx.Params("id")

	stored, ok := srv.store.Retrieve(sessionID, KeyConversationHistory)
	if !ok {
		return errors.ErrHistoryNotFound
	}

	history, ok := stored.([]types.ChatMessage)
	if !ok {
		return errors.ErrHistoryNotFound
	}

	return ctx.JSON(types.HistoryResponse{SessionID: sessionID, History: history})
}

func (srv *ChatServer) handleDeleteSession(ctx fiber.Ctx) error {
	sessionID := ctx.Params("id")

	if !srv.store.ClearSession(sessionID) {
		return errors.ErrSessionNotFound
	}

	return ctx.JSON(fiber.Map{"session_id": sessionID, "deleted": true})
}

func (srv *ChatServer) handleMemoryStats(ctx fiber.Ctx) error {
	return ctx.JSON(srv.store.GetStats())
}

func (srv *ChatServer) handleMemoryCleanup(ctx fiber.Ctx) error {
	return ctx.JSON(types.CleanupResponse{CleanedEntries: srv.store.CleanupExpired()})
}

func errorHandler(ctx fiber.Ctx, err error) error {
	var apiErr *errors.APIError
	if stderrors.As(err, &apiErr) {
		return ctx.Status(apiErr.Status).JSON(apiErr)
	}

	log.Error("unhandled error", "error", err, "path", ctx.Path())
	return ctx.Status(errors.ErrInternal.Status).JSON(errors.ErrInternal)
}

func allowedOrigins() []string {
	origins := viper.GetStringSlice("server.cors_origins")
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}
