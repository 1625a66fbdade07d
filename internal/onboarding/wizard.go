package onboarding

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Wizard guides the user through the initial configuration on a plain
// terminal, for environments where the TUI cannot run.
type Wizard struct {
	scanner *bufio.Scanner
}

func NewWizard() *Wizard {
	return &Wizard{
		scanner: bufio.NewScanner(os.Stdin),
	}
}

// Run starts the interactive setup process.
func (w *Wizard) Run() (*Config, error) {
	fmt.Println("\nWelcome to doppel setup!")
	fmt.Println("Let's configure your digital twin.")
	fmt.Println(strings.Repeat("-", 40))

	cfg := &Config{DocsDir: "me"}

	fmt.Println("\n[1/4] Generation backend")
	w.askProvider(cfg)
	w.askModel(cfg)
	w.askBaseURL(cfg)
	w.askAPIKey(cfg)

	fmt.Println("\n[2/4] Persona")
	fmt.Print("Who does this twin represent? Name: ")
	cfg.Name = w.readLine()
	fmt.Printf("Persona docs directory (default: %s): ", cfg.DocsDir)
	if dir := w.readLine(); dir != "" {
		cfg.DocsDir = dir
	}
	if _, err := os.Stat(cfg.DocsDir); os.IsNotExist(err) {
		fmt.Print("Directory does not exist. Create it? (Y/n): ")
		if w.confirm(true) {
			os.MkdirAll(cfg.DocsDir, 0755)
			fmt.Println("Created docs directory. Drop summary.txt, linkedin.txt and resume.txt there.")
		}
	}

	fmt.Println("\n[3/4] Notifications (optional)")
	fmt.Print("Pushover app token (leave empty to skip): ")
	cfg.PushoverToken = w.readLine()
	if cfg.PushoverToken != "" {
		fmt.Print("Pushover user key: ")
		cfg.PushoverUser = w.readLine()
	}

	fmt.Println("\n[4/4] Reply evaluation (optional)")
	fmt.Print("Anthropic API key for the evaluator (leave empty to skip): ")
	cfg.EvalAPIKey = w.readLine()
	if cfg.EvalAPIKey != "" {
		fmt.Print("Evaluator model (default: claude-3-7-sonnet-latest): ")
		cfg.EvalModel = w.readLine()
	}

	w.summarize(cfg)
	return cfg, nil
}

func (w *Wizard) askProvider(cfg *Config) {
	fmt.Println("Select LLM provider:")
	fmt.Println("1) OpenAI")
	fmt.Println("2) Anthropic")
	fmt.Println("3) Gemini")
	fmt.Println("4) Ollama (local)")

	for {
		fmt.Print("Choice (default: 1): ")
		input := w.readLine()

		switch input {
		case "1", "":
			cfg.Provider = "openai"
			return
		case "2":
			cfg.Provider = "anthropic"
			return
		case "3":
			cfg.Provider = "gemini"
			return
		case "4":
			cfg.Provider = "ollama"
			return
		default:
			fmt.Println("Invalid choice. Please select 1-4.")
		}
	}
}

func (w *Wizard) askModel(cfg *Config) {
	defaultModel := "gpt-4o-mini"
	switch cfg.Provider {
	case "anthropic":
		defaultModel = "claude-3-5-sonnet-latest"
	case "gemini":
		defaultModel = "gemini-2.5-flash"
	case "ollama":
		defaultModel = "llama3.2"
	}

	fmt.Printf("Enter model name (default: %s): ", defaultModel)
	if input := w.readLine(); input != "" {
		cfg.Model = input
	} else {
		cfg.Model = defaultModel
	}
}

func (w *Wizard) askBaseURL(cfg *Config) {
	if cfg.Provider != "ollama" {
		return
	}
	defaultURL := "http://localhost:11434"
	fmt.Printf("Enter base URL (press Enter for default %s): ", defaultURL)
	if input := w.readLine(); input != "" {
		cfg.BaseURL = input
	} else {
		cfg.BaseURL = defaultURL
	}
}

func (w *Wizard) askAPIKey(cfg *Config) {
	if cfg.Provider == "ollama" {
		return
	}
	envVar := strings.ToUpper("DOPPEL_" + cfg.Provider + "_API_KEY")
	fmt.Printf("Enter API key (or leave empty if set in %s): ", envVar)
	cfg.APIKey = w.readLine()
}

func (w *Wizard) readLine() string {
	w.scanner.Scan()
	return strings.TrimSpace(w.scanner.Text())
}

func (w *Wizard) confirm(def bool) bool {
	input := strings.ToLower(w.readLine())
	if input == "" {
		return def
	}
	return input == "y" || input == "yes"
}

func (w *Wizard) summarize(cfg *Config) {
	fmt.Println("\n" + strings.Repeat("=", 40))
	fmt.Println("Setup summary:")
	fmt.Printf("Persona:   %s (docs in %s)\n", cfg.Name, cfg.DocsDir)
	fmt.Printf("Provider:  %s\n", cfg.Provider)
	fmt.Printf("Model:     %s\n", cfg.Model)
	if cfg.BaseURL != "" {
		fmt.Printf("URL:       %s\n", cfg.BaseURL)
	}
	if cfg.PushoverToken != "" {
		fmt.Println("Notify:    pushover enabled")
	} else {
		fmt.Println("Notify:    journal only")
	}
	if cfg.EvalAPIKey != "" {
		fmt.Println("Evaluator: enabled")
	} else {
		fmt.Println("Evaluator: disabled (replies always accepted)")
	}
	fmt.Println(strings.Repeat("=", 40))
	fmt.Println("\nConfiguration complete! Run 'doppel chat' or 'doppel serve' to start.")
}
