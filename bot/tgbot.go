package bot

import (
	"Easel/core"
	"Easel/lib/sl"
	"Easel/storage"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

const errorResponse = "Sorry, something went wrong. Please try again later."

type TgBot struct {
	conf        *core.Config
	log         *slog.Logger
	api         *tgbotapi.BotAPI
	studio      core.StudioService
	botUsername string

	// keyHint marks chats where the last failure pointed at the manual key;
	// any key mutation clears it.
	keyHint   map[int64]bool
	hintMutex sync.Mutex

	stopChan chan struct{}
}

func NewTgBot(conf *core.Config, log *slog.Logger) (*TgBot, error) {
	tgBot := &TgBot{
		conf:        conf,
		log:         log.With(sl.Module("bot")),
		botUsername: conf.Username,
		keyHint:     make(map[int64]bool),
		stopChan:    make(chan struct{}),
	}

	api, err := tgbotapi.NewBotAPI(conf.TelegramApiKey)
	if err != nil {
		return nil, err
	}
	tgBot.api = api

	return tgBot, nil
}

// SetStudio set studio service
func (t *TgBot) SetStudio(studio core.StudioService) {
	t.studio = studio
}

// SelectKey implements core.KeySelector: the chat analog of an external key
// picker is a prompt explaining how to switch credentials.
func (t *TgBot) SelectKey(userId int64) {
	text := "To use your own API key:\n"
	text += "/key <your-api-key> - store a personal key\n"
	text += "/usekey on - use it for generations\n"
	text += "/usekey off - go back to the built-in key\n"
	t.plainResponse(userId, text)
}

func (t *TgBot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := t.api.GetUpdatesChan(u)
	if err != nil {
		return err
	}

	for {
		select {
		case <-t.stopChan:
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			t.handleMessage(update.Message)
		}
	}
}

func (t *TgBot) Stop() {
	close(t.stopChan)
}

func (t *TgBot) handleMessage(incoming *tgbotapi.Message) {
	chat := incoming.Chat

	if !incoming.IsCommand() && !chat.IsPrivate() && !t.isMentioned(incoming.Text) && !t.isReplyToBot(incoming) {
		return
	}

	if incoming.IsCommand() {
		t.handleCommand(chat.ID, incoming)
		return
	}

	// A reply to the key prompt is the key itself, not a generation prompt.
	if t.pendingKeyHint(chat.ID) && t.isReplyToBot(incoming) {
		t.clearKeyHint(chat.ID)
		t.studio.SetManualKey(chat.ID, incoming.Text)
		t.studio.SetUseManualKey(chat.ID, true)
		t.plainResponse(chat.ID, "Your API key was saved and enabled.")
		return
	}

	prompt := t.stripMention(incoming.Text)

	logText := prompt
	if len(logText) > 50 {
		logText = logText[:50] + "..."
	}
	t.log.With(
		slog.Int64("chat", chat.ID),
		slog.String("prompt", logText),
	).Info("incoming prompt")

	go t.generate(chat.ID, prompt)
}

func (t *TgBot) handleCommand(chatId int64, incoming *tgbotapi.Message) {
	args := strings.TrimSpace(incoming.CommandArguments())

	switch incoming.Command() {
	case "help", "start":
		text := "Describe an image and I will generate it. Commands:\n"
		text += "/size low|medium|high - output resolution\n"
		text += "/ratio square|tall|wide|portrait|landscape - aspect ratio\n"
		text += "/key <api-key> - store your own API key\n"
		text += "/usekey on|off - switch between your key and the built-in one\n"
		text += "/history - list your past generations\n"
		text += "/last - download the most recent image\n"
		text += "/clear - forget your history\n"
		t.plainResponse(chatId, text)

	case "size":
		if tier, err := t.studio.SetSize(chatId, args); err != nil {
			t.plainResponse(chatId, err.Error())
		} else {
			t.plainResponse(chatId, "Resolution set to "+tier+".")
		}

	case "ratio":
		if ratio, err := t.studio.SetRatio(chatId, args); err != nil {
			t.plainResponse(chatId, err.Error())
		} else {
			t.plainResponse(chatId, "Aspect ratio set to "+ratio+".")
		}

	case "key":
		t.clearKeyHint(chatId)
		t.studio.SetManualKey(chatId, args)
		if args == "" {
			t.plainResponse(chatId, "Your API key was removed.")
		} else {
			t.studio.SetUseManualKey(chatId, true)
			t.plainResponse(chatId, "Your API key was saved and enabled.")
		}

	case "usekey":
		t.clearKeyHint(chatId)
		switch strings.ToLower(args) {
		case "on":
			t.studio.SetUseManualKey(chatId, true)
			t.plainResponse(chatId, "Using your API key.")
		case "off":
			t.studio.SetUseManualKey(chatId, false)
			t.plainResponse(chatId, "Using the built-in API key.")
		default:
			t.plainResponse(chatId, "Usage: /usekey on|off")
		}

	case "history":
		t.sendHistory(chatId)

	case "last":
		t.sendLast(chatId)

	case "clear":
		t.studio.ClearHistory(chatId)
		t.plainResponse(chatId, "History cleared.")

	case "settings":
		s := t.studio.Settings(chatId)
		keySource := "built-in"
		if s.UseManualKey {
			keySource = "personal"
		}
		text := fmt.Sprintf("Resolution: %s\nAspect ratio: %s\nAPI key: %s",
			s.Size, s.Ratio, keySource)
		t.plainResponse(chatId, text)

	default:
		t.plainResponse(chatId, "Unknown command, try /help.")
	}
}

// generate runs one attempt, keeping the chat action alive while the request
// is in flight.
func (t *TgBot) generate(chatId int64, prompt string) {
	stopTicker := make(chan bool)
	outcomeReady := make(chan *core.Outcome)

	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		t.sendChatAction(chatId, "upload_photo")
		for {
			select {
			case <-ticker.C:
				t.sendChatAction(chatId, "upload_photo")
			case <-stopTicker:
				return
			}
		}
	}()

	go func() {
		outcomeReady <- t.studio.Generate(chatId, prompt)
	}()

	outcome := <-outcomeReady
	stopTicker <- true

	if outcome == nil {
		t.plainResponse(chatId, errorResponse)
		return
	}

	if outcome.Entry != nil {
		t.sendImage(chatId, outcome.Entry, false)
		return
	}

	t.plainResponse(chatId, outcome.Status)
	if outcome.Hint == core.HintManualKey {
		t.showKeyHint(chatId)
	}
}

func (t *TgBot) sendHistory(chatId int64) {
	entries := t.studio.History(chatId)
	if len(entries) == 0 {
		t.plainResponse(chatId, "No generations yet.")
		return
	}

	text := fmt.Sprintf("Your last %d generations, most recent first:\n", len(entries))
	for i, entry := range entries {
		prompt := entry.Prompt
		if len(prompt) > 60 {
			prompt = prompt[:60] + "..."
		}
		text += fmt.Sprintf("%d. %s (%s)\n", i+1, prompt, entry.CreatedAt.Format("2006-01-02 15:04"))
	}
	text += "Use /last to download the most recent image."
	t.plainResponse(chatId, text)
}

func (t *TgBot) sendLast(chatId int64) {
	entry := t.studio.Last(chatId)
	if entry == nil {
		t.plainResponse(chatId, "No generations yet.")
		return
	}
	t.sendImage(chatId, entry, true)
}

// sendImage delivers an entry as a photo, or as a document when the original
// bytes matter (the download action).
func (t *TgBot) sendImage(chatId int64, entry *storage.HistoryEntry, asDocument bool) {
	data, err := base64.StdEncoding.DecodeString(entry.Image)
	if err != nil {
		t.log.Error("decoding stored image", sl.Err(err))
		t.plainResponse(chatId, errorResponse)
		return
	}

	file := tgbotapi.FileBytes{Name: entry.FileName(), Bytes: data}
	var msg tgbotapi.Chattable
	if asDocument {
		msg = tgbotapi.NewDocumentUpload(chatId, file)
	} else {
		photo := tgbotapi.NewPhotoUpload(chatId, file)
		photo.Caption = entry.Prompt
		msg = photo
	}
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("sending image", sl.Err(err))
		t.plainResponse(chatId, errorResponse)
	}
}

func (t *TgBot) sendChatAction(chatId int64, action string) {
	msg := tgbotapi.NewChatAction(chatId, action)
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("sending chat action", sl.Err(err))
	}
}

func (t *TgBot) plainResponse(chatId int64, text string) {
	msg := tgbotapi.NewMessage(chatId, text)
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("sending message", sl.Err(err))
	}
}

// showKeyHint is the chat analog of focusing and highlighting the key input:
// a forced reply keeps the key prompt in front of the user.
func (t *TgBot) showKeyHint(chatId int64) {
	t.hintMutex.Lock()
	t.keyHint[chatId] = true
	t.hintMutex.Unlock()

	msg := tgbotapi.NewMessage(chatId, "Set your key with /key <api-key>.")
	msg.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true}
	if _, err := t.api.Send(msg); err != nil {
		t.log.Error("sending key hint", sl.Err(err))
	}
}

func (t *TgBot) pendingKeyHint(chatId int64) bool {
	t.hintMutex.Lock()
	defer t.hintMutex.Unlock()
	return t.keyHint[chatId]
}

func (t *TgBot) clearKeyHint(chatId int64) {
	t.hintMutex.Lock()
	delete(t.keyHint, chatId)
	t.hintMutex.Unlock()
}

// detect if we are mentioned in the message
func (t *TgBot) isMentioned(text string) bool {
	if t.botUsername != "" {
		return strings.Contains(text, "@"+t.botUsername)
	}
	return false
}

func (t *TgBot) stripMention(text string) string {
	if t.botUsername != "" {
		text = strings.ReplaceAll(text, "@"+t.botUsername, "")
	}
	return strings.TrimSpace(text)
}

// detect if message is a reply to a message from the bot
func (t *TgBot) isReplyToBot(message *tgbotapi.Message) bool {
	if message.ReplyToMessage != nil {
		return message.ReplyToMessage.From.UserName == t.botUsername
	}
	return false
}
