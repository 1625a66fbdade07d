// Package gateway wires configuration, persona documents, the notifier
// stack, the evaluator and the generation adapter into a ready chat session.
package gateway

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"doppel/internal/browser"
	"doppel/internal/chat"
	"doppel/internal/journal"
	"doppel/internal/judge"
	"doppel/internal/llm"
	"doppel/internal/notify"
	"doppel/internal/onboarding"
	"doppel/internal/persona"
	"doppel/internal/tools"

	"github.com/joho/godotenv"
)

const defaultEvalModel = "claude-3-7-sonnet-latest"

type Gateway struct {
	ConfigPath string
	cfg        *onboarding.Config
}

func New(configPath string) *Gateway {
	return &Gateway{ConfigPath: configPath}
}

// Session is one wired conversation runtime.
type Session struct {
	Service  *chat.Service
	Journal  *journal.Journal
	Persona  *persona.Profile
	Provider llm.Provider
	Model    string
}

// LoadConfig (re)reads the config file, falling back to an empty config.
func (g *Gateway) LoadConfig() *onboarding.Config {
	path := g.ConfigPath
	if path == "" {
		path = onboarding.DefaultPath
	}
	cfg, err := onboarding.LoadFromFile(path)
	if err != nil {
		cfg = &onboarding.Config{}
	}
	g.cfg = cfg
	return cfg
}

// InitService builds a chat session from config file, environment and
// persona documents. Optional collaborators (evaluator, pushover) degrade to
// no-ops when unconfigured; only a broken generation backend is fatal.
func (g *Gateway) InitService(ctx context.Context) (*Session, error) {
	_ = godotenv.Load()

	provider := llm.ProviderOpenAI
	model := "gpt-4o-mini"
	baseURL := ""
	name := ""
	docsDir := "me"
	profileURL := ""
	evalModel := defaultEvalModel

	cfg := g.LoadConfig()
	if cfg.Provider != "" {
		provider = llm.Provider(cfg.Provider)
	}
	if cfg.Model != "" {
		model = cfg.Model
	}
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	if cfg.Name != "" {
		name = cfg.Name
	}
	if cfg.DocsDir != "" {
		docsDir = cfg.DocsDir
	}
	if cfg.ProfileURL != "" {
		profileURL = cfg.ProfileURL
	}
	if cfg.EvalModel != "" {
		evalModel = cfg.EvalModel
	}

	// Adapter constructors read DOPPEL_<PROVIDER>_API_KEY from the
	// environment; config-file keys are exported there unless already set.
	if cfg.APIKey != "" {
		keyVar := "DOPPEL_" + strings.ToUpper(string(provider)) + "_API_KEY"
		if os.Getenv(keyVar) == "" {
			os.Setenv(keyVar, cfg.APIKey)
		}
	}
	if cfg.EvalAPIKey != "" && os.Getenv("DOPPEL_ANTHROPIC_API_KEY") == "" {
		os.Setenv("DOPPEL_ANTHROPIC_API_KEY", cfg.EvalAPIKey)
	}

	// Environment variables override the config file.
	if v := os.Getenv("DOPPEL_PROVIDER"); v != "" {
		provider = llm.Provider(v)
	}
	if v := os.Getenv("DOPPEL_MODEL"); v != "" {
		model = v
	}
	if v := os.Getenv("DOPPEL_BASE_URL"); v != "" {
		baseURL = v
	}
	if v := os.Getenv("DOPPEL_NAME"); v != "" {
		name = v
	}
	if v := os.Getenv("DOPPEL_DOCS_DIR"); v != "" {
		docsDir = v
	}
	if v := os.Getenv("DOPPEL_PROFILE_URL"); v != "" {
		profileURL = v
	}
	if v := os.Getenv("DOPPEL_EVAL_MODEL"); v != "" {
		evalModel = v
	}

	profile := persona.Load(docsDir, name)
	if profile.LinkedIn == "" && profileURL != "" {
		fillFromWeb(ctx, profile, profileURL)
	}

	jrnl := journal.New()
	channels := notify.Multi{jrnl}

	pushToken := firstNonEmpty(os.Getenv("PUSHOVER_TOKEN"), cfg.PushoverToken)
	pushUser := firstNonEmpty(os.Getenv("PUSHOVER_USER"), cfg.PushoverUser)
	if po, err := notify.NewPushover(pushToken, pushUser); err != nil {
		log.Printf("[Gateway] pushover disabled: set PUSHOVER_TOKEN and PUSHOVER_USER to enable")
	} else {
		channels = append(channels, po)
	}

	mgr := tools.NewManager()
	mgr.Register(&tools.RecordContact{Notifier: channels})
	mgr.Register(&tools.RecordUnknownQuestion{Notifier: channels})

	adapter, err := llm.NewAdapter(provider, model, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize adapter: %w", err)
	}

	var evaluator chat.Evaluator
	if os.Getenv("DOPPEL_ANTHROPIC_API_KEY") == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
		log.Printf("[Gateway] evaluator disabled: no Anthropic API key, replies are always accepted")
		evaluator = judge.Disabled{}
	} else if j, err := judge.NewAnthropic(evalModel); err != nil {
		log.Printf("[Gateway] evaluator disabled: %v", err)
		evaluator = judge.Disabled{}
	} else {
		evaluator = j
	}

	service := chat.NewService(adapter, profile.SystemPrompt(),
		chat.WithToolbox(mgr),
		chat.WithEvaluator(evaluator),
	)

	return &Session{
		Service:  service,
		Journal:  jrnl,
		Persona:  profile,
		Provider: provider,
		Model:    model,
	}, nil
}

// fillFromWeb snapshots the public profile page into the LinkedIn slot.
// Failures are warnings; the persona just stays thinner.
func fillFromWeb(ctx context.Context, profile *persona.Profile, url string) {
	ctrl := browser.New(browser.Config{Headless: true})
	if err := ctrl.Start(ctx); err != nil {
		log.Printf("[Gateway] profile capture skipped: %v", err)
		return
	}
	defer ctrl.Stop()

	text, err := ctrl.CapturePage(url)
	if err != nil {
		log.Printf("[Gateway] profile capture failed: %v", err)
		return
	}
	profile.LinkedIn = text
	log.Printf("[Gateway] captured profile page %s (%d bytes)", url, len(text))
}

// Execute answers a single question and exits.
func (g *Gateway) Execute(ctx context.Context, input string) error {
	session, err := g.InitService(ctx)
	if err != nil {
		return err
	}

	turnCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	reply, err := session.Service.Send(turnCtx, input)
	if err != nil {
		var genErr *chat.GenerationError
		if errors.As(err, &genErr) {
			log.Printf("[Gateway] %v", genErr)
			fmt.Println(chat.Apology)
			return nil
		}
		return err
	}
	fmt.Println(reply)
	return nil
}

// Run starts the interactive terminal session.
func (g *Gateway) Run(ctx context.Context) error {
	session, err := g.InitService(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("doppel: answering as %s\n", session.Persona.Name)
	fmt.Printf("model=%s, provider=%s\n", session.Model, session.Provider)
	fmt.Println("Type /exit to quit, /clear to reset context, /events to list recorded events.")

	scanner := bufio.NewScanner(os.Stdin)
	go func() {
		<-ctx.Done()
		os.Stdin.Close() // Force read error to break loop
	}()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return nil
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch input {
		case "/exit", "exit", "quit":
			return nil
		case "/clear":
			session.Service.Clear()
			fmt.Println("context cleared")
			continue
		case "/events":
			printEvents(session.Journal)
			continue
		}

		turnCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		reply, err := session.Service.Send(turnCtx, input)
		cancel()
		if err != nil {
			var genErr *chat.GenerationError
			if errors.As(err, &genErr) {
				log.Printf("[Gateway] %v", genErr)
				fmt.Println(chat.Apology)
				continue
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(reply)
	}
}

func printEvents(j *journal.Journal) {
	entries := j.Entries()
	if len(entries) == 0 {
		fmt.Println("no events recorded this session")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  [%s]  %s\n", e.At.Format(time.RFC3339), e.Kind, strings.ReplaceAll(e.Message, "\n", " | "))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
