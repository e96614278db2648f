package dispatcher

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/bot/models"
)

// Reply menu and inline button labels. Routing matches on these exact
// strings, so they double as the inbound vocabulary.
const (
	btnAuthorize = "Authorize"
	btnLogout    = "Log out"
	btnUpload    = "Upload file"
	btnListFiles = "Uploaded files"
	btnDocument  = "Document"
	btnPhoto     = "Photo"
	btnDelete    = "Delete"
)

const (
	msgAuthPrompt              = "Please use the /auth <your_key> command or press the 'Authorize' button."
	msgWelcomeBack             = "Welcome back, %s!"
	msgRegistered              = "Hello, %s! You are now registered."
	msgRegisteredNotAuthorized = "Hello, %s! You are registered but not yet authorized."
	msgRegistrationFailed      = "Something went wrong during registration. Try again later."

	msgRegisterFirst     = "Please register first using the /start command."
	msgUseStartFirst     = "Please use /start to register first."
	msgAlreadyAuthorized = "%s, you are already authorized."
	msgAuthUsage         = "Please provide an authorization key after the command. Example: /auth your_key"
	msgAuthSuccess       = "Congratulations, %s! You are now authorized."
	msgKeyInvalid        = "Authorization key not found. Check the key and try again."
	msgKeyUsed           = "This authorization key has already been used."
	msgEnterAuthCommand  = "Please enter the /auth <your_key> command to authorize."
	msgLoggedOut         = "You have logged out successfully."
	msgUnauthorized      = "This feature is available to authorized users only."
	msgInternalError     = "An internal error occurred. Try again later."

	msgChooseFileType  = "Choose the file type to upload:"
	msgUploadDocument  = "Please upload a document (%s). Or /cancel"
	msgUploadPhoto     = "Please upload a photo. Or /cancel"
	msgUnknownFileType = "Unknown file type. Try again."
	msgNoActiveUpload  = "No active upload. Press 'Upload file' to start."

	msgDocumentUploaded   = "Document '%s' uploaded!"
	msgPhotoUploaded      = "Photo uploaded successfully!"
	msgUploadFailed       = "Could not save the file. Try again or /cancel."
	msgPhotoUploadFailed  = "Could not save the photo. Try again or /cancel."
	msgInvalidFormat      = "Invalid format (%s). Allowed: %s.\nSend another file or /cancel."
	msgExpectDocument     = "A document file is expected (%s). Send a file or cancel: /cancel."
	msgExpectPhoto        = "A photo is expected. Send a photo or cancel: /cancel."
	msgPressInlineButtons = "Please press one of the buttons above ('Document' or 'Photo') or cancel: /cancel."

	msgNoFiles     = "You have not uploaded any files yet."
	msgFilesHeader = "Your uploaded files:"

	msgFileDeleted       = "File deleted."
	msgDeletedAnnotation = "\n\nDeleted"
	msgDeleteForbidden   = "Error: cannot delete another user's file."
	msgDeleteNotFound    = "Error: file not found or already deleted."

	msgCancelled       = "Action cancelled."
	msgNothingToCancel = "No active action to cancel."
)

// allowedDocExtensions lists the extensions accepted for document uploads,
// lower case with the leading dot.
var allowedDocExtensions = []string{".pdf", ".doc", ".docx", ".xlsx"}

func allowedExtension(ext string) bool {
	for _, allowed := range allowedDocExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func allowedExtensionList() string {
	return strings.Join(allowedDocExtensions, ", ")
}

// formatFileInfo renders one stored file the way the list view shows it.
func formatFileInfo(f *models.StoredFile) string {
	uploaded := "N/A"
	if !f.UploadedAt.IsZero() {
		uploaded = f.UploadedAt.Format("2006-01-02 15:04:05")
	}

	kindLabel := btnDocument
	if f.Kind == models.KindPhoto {
		kindLabel = btnPhoto
	}

	owner := f.OwnerName
	if owner == "" {
		owner = "Unknown"
	}

	return fmt.Sprintf("File #%d\nUploaded by: %s\nDate and time: %s\nFile type: %s\nFile name: %s",
		f.ID, owner, uploaded, kindLabel, f.OriginalFilename)
}
