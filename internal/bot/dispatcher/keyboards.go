package dispatcher

import (
	"strconv"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/bot/telegram"
)

// Callback data prefixes. Data is packed as "<prefix>:<value>".
const (
	callbackFileType   = "file_type"
	callbackDeleteFile = "delete_file"
)

func packCallback(prefix, value string) string {
	return prefix + ":" + value
}

func unpackCallback(data string) (prefix, value string) {
	prefix, value, _ = strings.Cut(data, ":")
	return prefix, value
}

var mainMenuAuthorized = &telegram.ReplyKeyboardMarkup{
	Keyboard: [][]telegram.KeyboardButton{
		{{Text: btnUpload}, {Text: btnListFiles}},
		{{Text: btnLogout}},
	},
	ResizeKeyboard: true,
}

var mainMenuUnauthorized = &telegram.ReplyKeyboardMarkup{
	Keyboard:        [][]telegram.KeyboardButton{{{Text: btnAuthorize}}},
	ResizeKeyboard:  true,
	OneTimeKeyboard: true,
}

var fileTypeKeyboard = &telegram.InlineKeyboardMarkup{
	InlineKeyboard: [][]telegram.InlineKeyboardButton{{
		{Text: btnDocument, CallbackData: packCallback(callbackFileType, "document")},
		{Text: btnPhoto, CallbackData: packCallback(callbackFileType, "photo")},
	}},
}

// deleteButton binds a Delete inline button to one stored file.
func deleteButton(fileID int64) *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: btnDelete, CallbackData: packCallback(callbackDeleteFile, strconv.FormatInt(fileID, 10))},
		}},
	}
}
