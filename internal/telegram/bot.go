// Package telegram runs the twin as a long-polling Telegram bot, with an
// independent conversation session per chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"doppel/internal/chat"
	"doppel/internal/gateway"

	"github.com/joho/godotenv"
	tele "gopkg.in/telebot.v3"
)

type userSession struct {
	session *gateway.Session
	lastUse time.Time
	mu      sync.Mutex
}

// BotAdapter runs doppel as a Telegram bot.
type BotAdapter struct {
	bot        *tele.Bot
	gw         *gateway.Gateway
	sessions   map[int64]*userSession
	sessionsMu sync.RWMutex
}

func NewBot(configPath string) (*BotAdapter, error) {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is required")
	}

	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	adapter := &BotAdapter{
		bot:      b,
		gw:       gateway.New(configPath),
		sessions: make(map[int64]*userSession),
	}

	adapter.setupHandlers()
	return adapter, nil
}

// Start begins listening for Telegram messages.
func (b *BotAdapter) Start(ctx context.Context) error {
	log.Printf("[Telegram] Starting bot @%s", b.bot.Me.Username)

	go b.cleanupLoop(ctx)

	go func() {
		<-ctx.Done()
		log.Println("[Telegram] Shutting down...")
		b.bot.Stop()
		b.dropAllSessions()
	}()

	b.bot.Start()
	return nil
}

func (b *BotAdapter) setupHandlers() {
	b.bot.Handle("/start", func(c tele.Context) error {
		session, err := b.getSession(context.Background(), c.Chat().ID)
		if err != nil {
			return c.Send("Hi! I'm not fully set up yet, please try again later.")
		}
		return c.Send(fmt.Sprintf("Hi! I answer questions about %s's career, background and experience. Ask away.",
			session.session.Persona.Name))
	})

	b.bot.Handle("/clear", func(c tele.Context) error {
		chatID := c.Chat().ID
		b.sessionsMu.Lock()
		if us, exists := b.sessions[chatID]; exists {
			us.mu.Lock()
			us.session.Service.Clear()
			us.mu.Unlock()
		}
		b.sessionsMu.Unlock()
		return c.Send("Conversation context cleared.")
	})

	b.bot.Handle(tele.OnText, b.handleMessage)
}

func (b *BotAdapter) handleMessage(c tele.Context) error {
	chatID := c.Chat().ID
	text := c.Text()

	_ = c.Notify(tele.Typing)

	us, err := b.getSession(context.Background(), chatID)
	if err != nil {
		log.Printf("[Telegram] Error getting session for %d: %v", chatID, err)
		return c.Send("Error initializing the assistant. Please try again later.")
	}

	us.mu.Lock()
	defer us.mu.Unlock()
	us.lastUse = time.Now()

	turnCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	reply, err := us.session.Service.Send(turnCtx, text)
	if err != nil {
		var genErr *chat.GenerationError
		if errors.As(err, &genErr) {
			log.Printf("[Telegram] %v", genErr)
			return c.Send(chat.Apology)
		}
		log.Printf("[Telegram] Error processing message for %d: %v", chatID, err)
		return c.Send(fmt.Sprintf("An error occurred: %v", err))
	}

	if reply == "" {
		return c.Send("I don't have a response for that.")
	}
	return sendLongMessage(c, reply)
}

func (b *BotAdapter) getSession(ctx context.Context, chatID int64) (*userSession, error) {
	b.sessionsMu.RLock()
	us, exists := b.sessions[chatID]
	b.sessionsMu.RUnlock()

	if exists {
		return us, nil
	}

	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()

	// Check again in case it was created while waiting for the lock
	if us, exists := b.sessions[chatID]; exists {
		return us, nil
	}

	log.Printf("[Telegram] Initializing new session for chat %d", chatID)
	session, err := b.gw.InitService(ctx)
	if err != nil {
		return nil, err
	}

	us = &userSession{
		session: session,
		lastUse: time.Now(),
	}
	b.sessions[chatID] = us
	return us, nil
}

func (b *BotAdapter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.sessionsMu.Lock()
			for id, us := range b.sessions {
				// Expire sessions inactive for more than 2 hours
				if time.Since(us.lastUse) > 2*time.Hour {
					log.Printf("[Telegram] Cleaning up inactive session for chat %d", id)
					delete(b.sessions, id)
				}
			}
			b.sessionsMu.Unlock()
		}
	}
}

func (b *BotAdapter) dropAllSessions() {
	b.sessionsMu.Lock()
	defer b.sessionsMu.Unlock()
	b.sessions = make(map[int64]*userSession)
}

// sendLongMessage splits and sends text if it exceeds Telegram's 4096 char limit.
func sendLongMessage(c tele.Context, text string) error {
	const maxLen = 4000 // Leave a little buffer
	var err error

	for len(text) > 0 {
		if len(text) > maxLen {
			chunk := text[:maxLen]
			err = c.Send(chunk)
			text = text[maxLen:]
		} else {
			err = c.Send(text)
			text = ""
		}
		if err != nil {
			return err
		}
	}
	return nil
}
