package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/bot/models"
	"github.com/dmitrijs2005/filekeeper/internal/bot/services"
	"github.com/dmitrijs2005/filekeeper/internal/bot/sessions"
	"github.com/dmitrijs2005/filekeeper/internal/common"
)

// handleStart greets the user, registering on first contact. Each outcome
// records exactly one audit entry.
func (d *Dispatcher) handleStart(ctx context.Context, ev *event) {
	user, err := d.auth.Lookup(ctx, ev.userID)

	switch {
	case err == nil && user.IsAuthorized:
		name := user.DisplayName
		if name == "" {
			name = "user"
		}
		d.send(ctx, ev.chatID, fmt.Sprintf(msgWelcomeBack, name), mainMenuAuthorized)
		d.auditor.Record(ctx, ev.userID,
			fmt.Sprintf("User %d used /start. Already registered and authorized.", ev.userID))

	case err == nil:
		d.send(ctx, ev.chatID,
			fmt.Sprintf(msgRegisteredNotAuthorized, ev.displayName())+"\n"+msgAuthPrompt,
			mainMenuUnauthorized)
		d.auditor.Record(ctx, ev.userID,
			fmt.Sprintf("User %d used /start. Already registered, but not authorized.", ev.userID))

	case errors.Is(err, common.ErrorNotFound):
		if _, err := d.auth.Register(ctx, ev.userID, ev.username); err != nil {
			d.logger.Error(ctx, "error registering user", "user_id", ev.userID, "error", err.Error())
			d.send(ctx, ev.chatID, msgRegistrationFailed, nil)
			d.auditor.Record(ctx, ev.userID, fmt.Sprintf("User %d registration failed.", ev.userID))
			return
		}
		d.logger.Info(ctx, "new user registered", "user_id", ev.userID, "display_name", ev.username)
		d.send(ctx, ev.chatID,
			fmt.Sprintf(msgRegistered, ev.displayName())+"\n"+msgAuthPrompt,
			mainMenuUnauthorized)
		d.auditor.Record(ctx, ev.userID, fmt.Sprintf("User %d registered.", ev.userID))

	default:
		d.logger.Error(ctx, "error looking up user", "user_id", ev.userID, "error", err.Error())
		d.send(ctx, ev.chatID, msgInternalError, nil)
	}
}

// handleRedeemKey implements /auth <key>. Advisory guards (registered, not
// already authorized, key present) run before the transactional redemption.
func (d *Dispatcher) handleRedeemKey(ctx context.Context, ev *event) {
	auditBase := fmt.Sprintf("User %d attempted authorization", ev.userID)

	user, err := d.auth.Lookup(ctx, ev.userID)
	if errors.Is(err, common.ErrorNotFound) {
		d.send(ctx, ev.chatID, msgRegisterFirst, mainMenuUnauthorized)
		d.auditor.Record(ctx, ev.userID, auditBase+" - failed: not registered.")
		return
	}
	if err != nil {
		d.logger.Error(ctx, "error looking up user", "user_id", ev.userID, "error", err.Error())
		d.send(ctx, ev.chatID, msgInternalError, nil)
		return
	}
	if user.IsAuthorized {
		d.send(ctx, ev.chatID, fmt.Sprintf(msgAlreadyAuthorized, ev.displayName()), mainMenuAuthorized)
		d.auditor.Record(ctx, ev.userID, auditBase+" - failed: already authorized.")
		return
	}

	token := ev.args
	if token == "" {
		d.send(ctx, ev.chatID, msgAuthUsage, nil)
		d.auditor.Record(ctx, ev.userID, auditBase+" - failed: no key provided.")
		return
	}

	switch err := d.auth.Redeem(ctx, ev.userID, token); {
	case err == nil:
		d.send(ctx, ev.chatID, fmt.Sprintf(msgAuthSuccess, ev.displayName()), mainMenuAuthorized)
		d.auditor.Record(ctx, ev.userID, auditBase+fmt.Sprintf(" - successful with key '%s'.", token))
	case errors.Is(err, common.ErrKeyInvalid):
		d.send(ctx, ev.chatID, msgKeyInvalid, mainMenuUnauthorized)
		d.auditor.Record(ctx, ev.userID, auditBase+" - failed: invalid key.")
	case errors.Is(err, common.ErrKeyUsed):
		d.send(ctx, ev.chatID, msgKeyUsed, mainMenuUnauthorized)
		d.auditor.Record(ctx, ev.userID, auditBase+" - failed: key already used.")
	default:
		d.logger.Error(ctx, "error redeeming key", "user_id", ev.userID, "error", err.Error())
		d.send(ctx, ev.chatID, msgInternalError, nil)
		d.auditor.Record(ctx, ev.userID, auditBase+" - failed: internal error.")
	}
}

// handleAuthorizePrompt reacts to the Authorize menu button.
func (d *Dispatcher) handleAuthorizePrompt(ctx context.Context, ev *event) {
	d.auditor.Record(ctx, ev.userID, fmt.Sprintf("User %d pressed 'Authorize' button.", ev.userID))

	user, err := d.auth.Lookup(ctx, ev.userID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		d.send(ctx, ev.chatID, msgUseStartFirst, nil)
	case err != nil:
		d.logger.Error(ctx, "error looking up user", "user_id", ev.userID, "error", err.Error())
		d.send(ctx, ev.chatID, msgInternalError, nil)
	case user.IsAuthorized:
		d.send(ctx, ev.chatID, fmt.Sprintf(msgAlreadyAuthorized, ev.displayName()), mainMenuAuthorized)
	default:
		d.send(ctx, ev.chatID, msgEnterAuthCommand, nil)
	}
}

func (d *Dispatcher) handleLogout(ctx context.Context, ev *event) {
	if err := d.auth.Deauthorize(ctx, ev.userID); err != nil {
		d.logger.Error(ctx, "error deauthorizing user", "user_id", ev.userID, "error", err.Error())
		d.send(ctx, ev.chatID, msgInternalError, nil)
		return
	}
	d.sessions.Clear(ev.userID)
	d.auditor.Record(ctx, ev.userID, fmt.Sprintf("User %d logged out.", ev.userID))
	d.send(ctx, ev.chatID, msgLoggedOut, mainMenuUnauthorized)
	d.logger.Info(ctx, "user logged out", "user_id", ev.userID, "display_name", ev.displayName())
}

// handleBeginUpload starts an upload session, superseding any previous one.
func (d *Dispatcher) handleBeginUpload(ctx context.Context, ev *event) {
	d.auditor.Record(ctx, ev.userID, fmt.Sprintf("User %d pressed 'Upload file' button.", ev.userID))
	d.sessions.Begin(ev.userID)
	d.send(ctx, ev.chatID, msgChooseFileType, fileTypeKeyboard)
}

func (d *Dispatcher) handleListFiles(ctx context.Context, ev *event) {
	d.auditor.Record(ctx, ev.userID, fmt.Sprintf("User %d pressed 'Uploaded files' button.", ev.userID))

	list, err := d.files.List(ctx, ev.userID)
	if err != nil {
		d.logger.Error(ctx, "error listing files", "user_id", ev.userID, "error", err.Error())
		d.send(ctx, ev.chatID, msgInternalError, nil)
		return
	}
	if len(list) == 0 {
		d.send(ctx, ev.chatID, msgNoFiles, nil)
		return
	}

	d.send(ctx, ev.chatID, msgFilesHeader, nil)
	for _, f := range list {
		d.send(ctx, ev.chatID, formatFileInfo(f), deleteButton(f.ID))
	}
}

// handleChooseKind advances the session after a Document/Photo inline button.
func (d *Dispatcher) handleChooseKind(ctx context.Context, ev *event) {
	_, value := unpackCallback(ev.callback.Data)
	d.auditor.Record(ctx, ev.userID, fmt.Sprintf("User %d chose file type '%s'.", ev.userID, value))
	d.answerCallback(ctx, ev.callback.ID, "", false)

	phase, err := d.sessions.ChooseKind(ev.userID, models.Kind(value))
	switch {
	case err == nil && phase == sessions.PhaseAwaitingDocument:
		d.editCallbackMessage(ctx, ev, fmt.Sprintf(msgUploadDocument, allowedExtensionList()))
	case err == nil:
		d.editCallbackMessage(ctx, ev, msgUploadPhoto)
	case errors.Is(err, common.ErrUnknownKind):
		d.logger.Warn(ctx, "unexpected file type in callback", "user_id", ev.userID, "value", value)
		d.editCallbackMessage(ctx, ev, msgUnknownFileType)
	case errors.Is(err, common.ErrNoSession):
		d.editCallbackMessage(ctx, ev, msgNoActiveUpload)
	}
}

// handleSubmitDocument stores a document sent while one is expected. A bad
// extension keeps the session so the user can try another file; once storage
// is attempted the session ends either way.
func (d *Dispatcher) handleSubmitDocument(ctx context.Context, ev *event) {
	doc := ev.document
	name := doc.FileName
	if name == "" {
		name = "unknown_document"
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtension(ext) {
		d.send(ctx, ev.chatID, fmt.Sprintf(msgInvalidFormat, ext, allowedExtensionList()), nil)
		d.auditor.Record(ctx, ev.userID,
			fmt.Sprintf("User %d sent wrong input while awaiting document. Invalid format (%s).", ev.userID, ext))
		return
	}

	body, err := d.fetchFile(ctx, doc.FileID)
	if err != nil {
		d.logger.Error(ctx, "error downloading document", "user_id", ev.userID, "error", err.Error())
		d.send(ctx, ev.chatID, msgUploadFailed, nil)
		d.auditor.Record(ctx, ev.userID,
			fmt.Sprintf("User %d sent wrong input while awaiting document. Could not save file.", ev.userID))
		return
	}
	defer body.Close()

	stored, err := d.files.StoreUpload(ctx, ev.userID, body, name, models.KindDocument)
	d.sessions.Clear(ev.userID)
	if err != nil {
		d.logger.Error(ctx, "error storing document", "user_id", ev.userID, "error", err.Error())
		d.send(ctx, ev.chatID, msgUploadFailed, nil)
		d.auditor.Record(ctx, ev.userID,
			fmt.Sprintf("User %d failed to save document '%s'.", ev.userID, name))
		return
	}

	d.send(ctx, ev.chatID, fmt.Sprintf(msgDocumentUploaded, name), mainMenuAuthorized)
	d.auditor.Record(ctx, ev.userID,
		fmt.Sprintf("User %d successfully uploaded document '%s' (file ID %d).", ev.userID, name, stored.ID))
}

// handleSubmitPhoto stores the largest size variant of a photo sent while one
// is expected.
func (d *Dispatcher) handleSubmitPhoto(ctx context.Context, ev *event) {
	body, err := d.fetchFile(ctx, ev.photo.FileID)
	if err != nil {
		d.logger.Error(ctx, "error downloading photo", "user_id", ev.userID, "error", err.Error())
		d.send(ctx, ev.chatID, msgPhotoUploadFailed, nil)
		d.auditor.Record(ctx, ev.userID,
			fmt.Sprintf("User %d attempted to upload photo - failed: could not save photo.", ev.userID))
		return
	}
	defer body.Close()

	stored, err := d.files.StoreUpload(ctx, ev.userID, body, "", models.KindPhoto)
	d.sessions.Clear(ev.userID)
	if err != nil {
		d.logger.Error(ctx, "error storing photo", "user_id", ev.userID, "error", err.Error())
		d.send(ctx, ev.chatID, msgPhotoUploadFailed, nil)
		d.auditor.Record(ctx, ev.userID,
			fmt.Sprintf("User %d attempted to upload photo - failed: database error saving record.", ev.userID))
		return
	}

	d.send(ctx, ev.chatID, msgPhotoUploaded, mainMenuAuthorized)
	d.auditor.Record(ctx, ev.userID,
		fmt.Sprintf("User %d successfully uploaded photo '%s'.", ev.userID, stored.OriginalFilename))
}

// handleDeleteFile reacts to a Delete inline button. Ownership and existence
// are decided by the file service; the handler only translates outcomes.
func (d *Dispatcher) handleDeleteFile(ctx context.Context, ev *event) {
	_, value := unpackCallback(ev.callback.Data)
	fileID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		d.logger.Warn(ctx, "malformed delete callback", "user_id", ev.userID, "data", ev.callback.Data)
		d.answerCallback(ctx, ev.callback.ID, msgDeleteNotFound, true)
		return
	}

	auditBase := fmt.Sprintf("User %d attempted to delete file ID %d", ev.userID, fileID)

	outcome, err := d.files.Delete(ctx, fileID, ev.userID)
	switch {
	case err != nil:
		d.logger.Error(ctx, "error deleting file", "user_id", ev.userID, "file_id", fileID, "error", err.Error())
		d.answerCallback(ctx, ev.callback.ID, msgInternalError, true)
		d.auditor.Record(ctx, ev.userID, auditBase+" - failed: internal error.")

	case outcome == services.OutcomeDeleted:
		d.answerCallback(ctx, ev.callback.ID, msgFileDeleted, false)
		d.auditor.Record(ctx, ev.userID, auditBase+" - successful.")
		if ev.callback.Message != nil && ev.callback.Message.Text != "" {
			d.editCallbackMessage(ctx, ev, ev.callback.Message.Text+msgDeletedAnnotation)
		}

	case outcome == services.OutcomeForbidden:
		d.answerCallback(ctx, ev.callback.ID, msgDeleteForbidden, true)
		d.auditor.Record(ctx, ev.userID, auditBase+" - failed: permission denied.")

	default:
		d.answerCallback(ctx, ev.callback.ID, msgDeleteNotFound, true)
		d.auditor.Record(ctx, ev.userID, auditBase+" - failed: not found.")
	}
}

// handleCancelUpload implements /cancel. It is matched before the session
// catch-alls, so it works in every phase.
func (d *Dispatcher) handleCancelUpload(ctx context.Context, ev *event) {
	menu := mainMenuUnauthorized
	if authorized, err := d.auth.IsAuthorized(ctx, ev.userID); err == nil && authorized {
		menu = mainMenuAuthorized
	}

	phase := d.sessions.Phase(ev.userID)
	if !d.sessions.Clear(ev.userID) {
		d.send(ctx, ev.chatID, msgNothingToCancel, menu)
		return
	}

	d.auditor.Record(ctx, ev.userID,
		fmt.Sprintf("User %d cancelled action in state %s.", ev.userID, phase))
	d.send(ctx, ev.chatID, msgCancelled, menu)
}

func (d *Dispatcher) handleWrongKindInput(ctx context.Context, ev *event) {
	d.auditor.Record(ctx, ev.userID,
		fmt.Sprintf("User %d sent text instead of choosing file type button.", ev.userID))
	d.send(ctx, ev.chatID, msgPressInlineButtons, nil)
}

func (d *Dispatcher) handleWrongDocumentInput(ctx context.Context, ev *event) {
	d.auditor.Record(ctx, ev.userID,
		fmt.Sprintf("User %d sent wrong input while awaiting document.", ev.userID))
	d.send(ctx, ev.chatID, fmt.Sprintf(msgExpectDocument, allowedExtensionList()), nil)
}

func (d *Dispatcher) handleWrongPhotoInput(ctx context.Context, ev *event) {
	d.auditor.Record(ctx, ev.userID,
		fmt.Sprintf("User %d sent wrong input while awaiting photo.", ev.userID))
	d.send(ctx, ev.chatID, msgExpectPhoto, nil)
}

// handleStrayCallback answers callbacks nothing else matched; unanswered
// callbacks are redelivered by the API.
func (d *Dispatcher) handleStrayCallback(ctx context.Context, ev *event) {
	d.logger.Warn(ctx, "unrecognized callback data", "user_id", ev.userID, "data", ev.callback.Data)
	d.answerCallback(ctx, ev.callback.ID, "", false)
}
