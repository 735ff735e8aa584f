// Package bot is the Telegram shell: it relays inbound text to the dialogue
// driver and the driver's answers back to the chat, and wires the handful
// of commands the bot understands.
package bot

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/tacs-assistant/server/internal/assistant"
	logx "github.com/tacs-assistant/server/pkg/logger"
)

const (
	pollTimeout    = 10 * time.Second
	restartBackoff = 15 * time.Second
)

const welcomeMessage = `¡Hola! Soy un asistente potenciado por GPT-4 para ayudarte con TACS.

Puedo ayudarte con consultas sobre alumnos, cursadas y cualquier pregunta relacionada con la materia.

Comandos disponibles:
/start - Iniciar el bot
/clear - Comenzar una nueva conversación
/help - Mostrar esta ayuda`

const helpMessage = `🤖 Asistente TACS

Puedo ayudarte con:
- Consultas sobre alumnos y sus datos
- Información sobre cursadas y notas
- Preguntas generales sobre la materia TACS

Ejemplos de preguntas:
- "Muéstrame todos los alumnos"
- "¿Cuáles son las notas del alumno con legajo 12345?"
- "¿Quién tiene la nota más alta?"

Comandos:
/clear - Reiniciar conversación
/help - Mostrar esta ayuda`

// Bot connects the Telegram long-poll loop to the dialogue driver.
type Bot struct {
	tb     *tele.Bot
	driver *assistant.Driver
}

func New(token string, driver *assistant.Driver) (*Bot, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: pollTimeout},
		OnError: func(err error, c tele.Context) {
			event := logx.Error().Err(err)
			if c != nil && c.Chat() != nil {
				event = event.Int64("chat_id", c.Chat().ID)
			}
			event.Msg("telegram update failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	b := &Bot{tb: tb, driver: driver}

	tb.Handle("/start", func(c tele.Context) error {
		return c.Send(welcomeMessage)
	})
	tb.Handle("/help", func(c tele.Context) error {
		return c.Send(helpMessage)
	})
	tb.Handle("/clear", b.onClear)
	tb.Handle("/debug", b.onDebug)
	tb.Handle(tele.OnText, b.onText)

	return b, nil
}

func (b *Bot) onClear(c tele.Context) error {
	if !b.driver.Clear(context.Background(), c.Chat().ID) {
		return c.Send("Hubo un error al reiniciar la conversación. Por favor, intenta de nuevo.")
	}
	return c.Send("¡Conversación reiniciada! ¿En qué puedo ayudarte?")
}

func (b *Bot) onDebug(c tele.Context) error {
	token, ok := b.driver.Token(context.Background(), c.Chat().ID)
	if !ok {
		return c.Send("No hay conversación activa.")
	}
	return c.Send("Token de continuidad actual: " + token)
}

func (b *Bot) onText(c tele.Context) error {
	chatID := c.Chat().ID

	if err := c.Notify(tele.Typing); err != nil {
		logx.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to send typing action")
	}

	answer := b.driver.Handle(context.Background(), chatID, c.Text())

	for _, chunk := range splitMessage(answer, messageLimit) {
		if err := c.Send(chunk); err != nil {
			return err
		}
	}

	logx.Info().Int64("chat_id", chatID).Str("user", c.Text()).Str("assistant", answer).Msg("turn complete")
	return nil
}

// Start runs the long-poll loop indefinitely. A panic escaping the poller
// is logged and polling resumes after a fixed backoff; the process only
// exits on startup failure.
func (b *Bot) Start() {
	for {
		b.poll()
		logx.Warn().Dur("backoff", restartBackoff).Msg("polling stopped, restarting")
		time.Sleep(restartBackoff)
	}
}

func (b *Bot) poll() {
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Interface("panic", r).Msg("recovered from polling panic")
		}
	}()
	b.tb.Start()
}

// Stop terminates the current poller cycle.
func (b *Bot) Stop() {
	b.tb.Stop()
}
