package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"pulse/assistant/internal/api"
	"pulse/assistant/internal/bizdata"
	"pulse/assistant/internal/config"
	"pulse/assistant/internal/history"
	"pulse/assistant/internal/inference"
	"pulse/assistant/internal/narration"
	"pulse/assistant/internal/orchestrator"
	"pulse/assistant/internal/panelws"
	"pulse/assistant/internal/reveal"
	"pulse/assistant/internal/speech"
	"pulse/assistant/internal/types"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg := config.Load()

	hist := history.New()
	biz := bizdata.New(cfg.Assistant.Currency)
	infer := inference.NewClient(cfg.Assistant.InferenceURL)
	synth := speech.NewClient(cfg.Assistant.SpeechURL)

	reg := panelws.NewRegistry()
	notifier := &panelws.Notifier{Reg: reg}

	narrator := narration.NewManager(synth, &panelws.ClipPlayer{Reg: reg}, notifier, cfg.Assistant.Language)
	orch := orchestrator.New(hist, biz, infer, cfg.Assistant.Language)

	renderer := reveal.NewRenderer(time.Duration(cfg.Reveal.TickMs) * time.Millisecond)
	presenter := panelws.NewPresenter(hist, reg, renderer, cfg.Reveal.Enabled)
	orch.OnSettled = presenter.OnSettled
	narrator.OnStatus = presenter.OnNarrationStatus

	h := api.NewHandlers(cfg, hist, biz, orch, narrator)
	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(h))
	mux.Handle("/metrics", promhttp.Handler())
	// WS panel route
	wss := panelws.NewServer(hist, reg)
	wss.OnCommand = func(conversationID string, cmd panelws.Command) {
		switch cmd.Type {
		case "submit_question":
			// An empty submission is a no-op and must not cancel the
			// in-flight turn.
			if strings.TrimSpace(cmd.Text) == "" {
				notifier.Warn(conversationID, "Please type a question first.")
				return
			}
			orch.Supersede(conversationID)
			if _, err := orch.Submit(conversationID, cmd.Text, cmd.Category); err != nil {
				notifier.Warn(conversationID, "Please type a question first.")
			}
		case "toggle_narration":
			entry, ok := hist.Entry(conversationID, cmd.MessageID)
			if !ok {
				notifier.Warn(conversationID, "That message no longer exists.")
				return
			}
			if entry.Sender != types.SenderAssistant && entry.Sender != types.SenderWelcome {
				notifier.Warn(conversationID, "Only assistant messages can be read aloud.")
				return
			}
			narrator.Toggle(conversationID, entry)
		case "reaction":
			if _, ok := hist.Entry(conversationID, cmd.MessageID); ok {
				hist.SetReaction(conversationID, cmd.MessageID, types.Reaction(cmd.Reaction))
			}
		default:
			log.Printf("[main] unknown command %q conv=%s", cmd.Type, conversationID)
		}
	}
	mux.HandleFunc("/ws/panel", wss.HandlePanelWS)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("shutdown signal received; stopping server...")
		// Wind down in-flight turns and narration before draining HTTP
		orch.CancelAll()
		narrator.StopAll()
		presenter.DisposeAll()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Printf("server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("server error:", err)
		os.Exit(1)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
