// Package dispatcher routes incoming Telegram updates to the bot's handlers.
// Every route carries an explicit authorization flag checked at dispatch
// time; commands are matched before session catch-alls so /cancel always
// works mid-upload.
package dispatcher

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/bot/models"
	"github.com/dmitrijs2005/filekeeper/internal/bot/services"
	"github.com/dmitrijs2005/filekeeper/internal/bot/sessions"
	"github.com/dmitrijs2005/filekeeper/internal/bot/telegram"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
)

// BotAPI is the slice of the Telegram client the dispatcher needs.
type BotAPI interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string, markup any) (*telegram.Message, error)
	EditMessageText(ctx context.Context, chatID int64, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID string, text string, showAlert bool) error
	GetFile(ctx context.Context, fileID string) (*telegram.File, error)
	DownloadFile(ctx context.Context, filePath string) (io.ReadCloser, error)
}

// Authorizer covers registration, lookup and key redemption.
type Authorizer interface {
	Register(ctx context.Context, userID int64, displayName string) (*models.User, error)
	Lookup(ctx context.Context, userID int64) (*models.User, error)
	IsAuthorized(ctx context.Context, userID int64) (bool, error)
	Redeem(ctx context.Context, userID int64, token string) error
	Deauthorize(ctx context.Context, userID int64) error
}

// FileStore covers upload, listing and deletion of stored files.
type FileStore interface {
	StoreUpload(ctx context.Context, userID int64, r io.Reader, originalName string, kind models.Kind) (*models.StoredFile, error)
	Delete(ctx context.Context, fileID int64, requestingUserID int64) (services.Outcome, error)
	List(ctx context.Context, userID int64) ([]*models.StoredFile, error)
}

// AuditTrail records user actions; implementations never fail the caller.
type AuditTrail interface {
	Record(ctx context.Context, userID int64, description string)
}

type Dispatcher struct {
	client   BotAPI
	auth     Authorizer
	files    FileStore
	auditor  AuditTrail
	sessions *sessions.Manager
	logger   logging.Logger

	pollTimeout time.Duration
	wg          sync.WaitGroup
}

func NewDispatcher(client BotAPI, auth Authorizer, files FileStore, auditor AuditTrail,
	sess *sessions.Manager, pollTimeout time.Duration, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		client:      client,
		auth:        auth,
		files:       files,
		auditor:     auditor,
		sessions:    sess,
		pollTimeout: pollTimeout,
		logger:      logger,
	}
}

// event is one classified update: the sender's identity plus whichever
// payload the update carried.
type event struct {
	userID    int64
	chatID    int64
	firstName string
	username  string

	text     string
	args     string
	document *telegram.Document
	photo    *telegram.PhotoSize
	callback *telegram.CallbackQuery
}

// displayName is the name used in replies; falls back to the first name for
// accounts without a username.
func (ev *event) displayName() string {
	if ev.username != "" {
		return ev.username
	}
	if ev.firstName != "" {
		return ev.firstName
	}
	return "user"
}

type handlerFunc func(d *Dispatcher, ctx context.Context, ev *event)

// route pairs a handler with its authorization requirement. gated routes are
// refused for unauthorized users before the handler runs.
type route struct {
	name    string
	gated   bool
	handler handlerFunc
}

var (
	routeStart          = &route{name: "start", handler: (*Dispatcher).handleStart}
	routeRedeemKey      = &route{name: "redeem_key", handler: (*Dispatcher).handleRedeemKey}
	routeCancelUpload   = &route{name: "cancel_upload", handler: (*Dispatcher).handleCancelUpload}
	routeAuthPrompt     = &route{name: "authorize_prompt", handler: (*Dispatcher).handleAuthorizePrompt}
	routeLogout         = &route{name: "logout", gated: true, handler: (*Dispatcher).handleLogout}
	routeBeginUpload    = &route{name: "begin_upload", gated: true, handler: (*Dispatcher).handleBeginUpload}
	routeListFiles      = &route{name: "list_files", gated: true, handler: (*Dispatcher).handleListFiles}
	routeChooseKind     = &route{name: "choose_kind", gated: true, handler: (*Dispatcher).handleChooseKind}
	routeDeleteFile     = &route{name: "delete_file", gated: true, handler: (*Dispatcher).handleDeleteFile}
	routeSubmitDocument = &route{name: "submit_document", gated: true, handler: (*Dispatcher).handleSubmitDocument}
	routeSubmitPhoto    = &route{name: "submit_photo", gated: true, handler: (*Dispatcher).handleSubmitPhoto}
	routeWrongKindInput = &route{name: "wrong_kind_input", gated: true, handler: (*Dispatcher).handleWrongKindInput}
	routeWrongDocument  = &route{name: "wrong_document_input", gated: true, handler: (*Dispatcher).handleWrongDocumentInput}
	routeWrongPhoto     = &route{name: "wrong_photo_input", gated: true, handler: (*Dispatcher).handleWrongPhotoInput}
	routeStrayCallback  = &route{name: "stray_callback", handler: (*Dispatcher).handleStrayCallback}
)

// Run long-polls for updates until ctx is cancelled and dispatches each one
// in its own goroutine. It returns once in-flight handlers have drained.
func (d *Dispatcher) Run(ctx context.Context) error {
	var offset int64

	for {
		select {
		case <-ctx.Done():
			d.wg.Wait()
			return nil
		default:
		}

		updates, err := d.client.GetUpdates(ctx, offset, int(d.pollTimeout.Seconds()))
		if err != nil {
			if ctx.Err() != nil {
				d.wg.Wait()
				return nil
			}
			d.logger.Error(ctx, "error polling updates", "error", err.Error())
			// Pause so a persistent poll failure does not spin.
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				d.wg.Wait()
				return nil
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			update := u
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				d.Dispatch(ctx, &update)
			}()
		}
	}
}

// Dispatch classifies a single update, applies the authorization guard and
// runs the matched handler. Unroutable updates are dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, update *telegram.Update) {
	r, ev := d.classify(update)
	if r == nil {
		return
	}

	if r.gated {
		authorized, err := d.auth.IsAuthorized(ctx, ev.userID)
		if err != nil {
			d.logger.Error(ctx, "error checking authorization",
				"route", r.name, "user_id", ev.userID, "error", err.Error())
			d.replyInternalError(ctx, ev)
			return
		}
		if !authorized {
			d.rejectUnauthorized(ctx, r, ev)
			return
		}
	}

	r.handler(d, ctx, ev)
}

// classify picks the route for an update. Match order: commands, menu
// buttons, expected payloads, then per-phase catch-alls.
func (d *Dispatcher) classify(update *telegram.Update) (*route, *event) {
	if update.CallbackQuery != nil {
		cb := update.CallbackQuery
		ev := &event{
			userID:    cb.From.ID,
			firstName: cb.From.FirstName,
			username:  cb.From.Username,
			callback:  cb,
		}
		if cb.Message != nil {
			ev.chatID = cb.Message.Chat.ID
		}

		switch prefix, _ := unpackCallback(cb.Data); prefix {
		case callbackFileType:
			return routeChooseKind, ev
		case callbackDeleteFile:
			return routeDeleteFile, ev
		default:
			return routeStrayCallback, ev
		}
	}

	m := update.Message
	if m == nil || m.From == nil {
		return nil, nil
	}

	ev := &event{
		userID:    m.From.ID,
		chatID:    m.Chat.ID,
		firstName: m.From.FirstName,
		username:  m.From.Username,
		text:      strings.TrimSpace(m.Text),
		document:  m.Document,
		photo:     m.LargestPhoto(),
	}

	if cmd, args, ok := parseCommand(ev.text); ok {
		ev.args = args
		switch cmd {
		case "/start":
			return routeStart, ev
		case "/auth":
			return routeRedeemKey, ev
		case "/cancel":
			return routeCancelUpload, ev
		}
		// Unknown commands fall through to the session catch-alls.
	}

	switch ev.text {
	case btnAuthorize:
		return routeAuthPrompt, ev
	case btnLogout:
		return routeLogout, ev
	case btnUpload:
		return routeBeginUpload, ev
	case btnListFiles:
		return routeListFiles, ev
	}

	phase := d.sessions.Phase(ev.userID)

	if ev.document != nil && phase == sessions.PhaseAwaitingDocument {
		return routeSubmitDocument, ev
	}
	if ev.photo != nil && phase == sessions.PhaseAwaitingPhoto {
		return routeSubmitPhoto, ev
	}

	switch phase {
	case sessions.PhaseChoosingKind:
		return routeWrongKindInput, ev
	case sessions.PhaseAwaitingDocument:
		return routeWrongDocument, ev
	case sessions.PhaseAwaitingPhoto:
		return routeWrongPhoto, ev
	}

	return nil, nil
}

// parseCommand splits "/auth key123" into "/auth" and "key123". A "@botname"
// suffix on the command is stripped, as in group chats.
func parseCommand(text string) (cmd, args string, ok bool) {
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	cmd, args, _ = strings.Cut(text, " ")
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return cmd, strings.TrimSpace(args), true
}

func (d *Dispatcher) rejectUnauthorized(ctx context.Context, r *route, ev *event) {
	d.logger.Warn(ctx, "unauthorized access attempt",
		"route", r.name, "user_id", ev.userID, "display_name", ev.displayName())

	if ev.chatID != 0 {
		d.send(ctx, ev.chatID, msgUnauthorized, mainMenuUnauthorized)
	}
	if ev.callback != nil {
		d.answerCallback(ctx, ev.callback.ID, msgUnauthorized, true)
	}
}

func (d *Dispatcher) replyInternalError(ctx context.Context, ev *event) {
	if ev.callback != nil {
		d.answerCallback(ctx, ev.callback.ID, msgInternalError, true)
		return
	}
	d.send(ctx, ev.chatID, msgInternalError, nil)
}

// send delivers a message, logging delivery failures instead of propagating
// them; there is nobody upstream to handle a failed reply.
func (d *Dispatcher) send(ctx context.Context, chatID int64, text string, markup any) {
	if _, err := d.client.SendMessage(ctx, chatID, text, markup); err != nil {
		d.logger.Error(ctx, "error sending message", "chat_id", chatID, "error", err.Error())
	}
}

func (d *Dispatcher) answerCallback(ctx context.Context, callbackID string, text string, showAlert bool) {
	if err := d.client.AnswerCallbackQuery(ctx, callbackID, text, showAlert); err != nil {
		d.logger.Error(ctx, "error answering callback query", "callback_id", callbackID, "error", err.Error())
	}
}

// editCallbackMessage rewrites the message an inline button was attached to.
func (d *Dispatcher) editCallbackMessage(ctx context.Context, ev *event, text string) {
	if ev.callback == nil || ev.callback.Message == nil {
		return
	}
	msg := ev.callback.Message
	if err := d.client.EditMessageText(ctx, msg.Chat.ID, msg.MessageID, text, nil); err != nil {
		d.logger.Error(ctx, "error editing message",
			"chat_id", msg.Chat.ID, "message_id", msg.MessageID, "error", err.Error())
	}
}

// fetchFile resolves a Telegram file id and opens its content for download.
func (d *Dispatcher) fetchFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	file, err := d.client.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("no file path for file id %s", fileID)
	}
	return d.client.DownloadFile(ctx, file.FilePath)
}
