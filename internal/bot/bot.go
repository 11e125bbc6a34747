package bot

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/cgpacalc/internal/app"
)

type botClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

// chat holds the login token of the workspace a telegram chat is editing.
type chat struct {
	mu    sync.Mutex
	token string
}

type Bot struct {
	service *app.Service
	api     botClient

	mu    sync.Mutex
	chats map[int64]*chat
}

func New(service *app.Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(service.Config.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	return newBot(service, api), nil
}

func newBot(service *app.Service, api botClient) *Bot {
	return &Bot{
		service: service,
		api:     api,
		chats:   make(map[int64]*chat),
	}
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case update := <-updates:
			if update.Message == nil {
				continue
			}

			go b.handleMessage(update.Message)

		case <-sigChan:
			logger.Info.Println("Shutting down bot...")
			return nil
		}
	}
}

func (b *Bot) chatState(id int64) *chat {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.chats[id]
	if !ok {
		c = &chat{}
		b.chats[id] = c
	}
	return c
}

// ownerOf names the saved-session owner of a chat.
func ownerOf(chatID int64) string {
	return fmt.Sprintf("tg-%d", chatID)
}
