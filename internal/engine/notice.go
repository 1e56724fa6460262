package engine

import (
	"errors"

	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/msgcat"
)

// Level is a notice severity
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notice is a user-facing message about an operation or the connection
type Notice struct {
	Level Level
	Key   string
	Text  string
	Err   error
}

// Message keys
const (
	NoticeConnected         = "notices.connected"
	NoticeDisconnected      = "notices.disconnected"
	NoticeNotConnected      = "notices.not_connected"
	NoticePlayerNotFound    = "notices.player_not_found"
	NoticeItemNotFound      = "notices.item_not_found"
	NoticeDuplicatePlayer   = "notices.duplicate_player"
	NoticeInvalidName       = "notices.invalid_name"
	NoticeInvalidIndex      = "notices.invalid_index"
	NoticeEditLocked        = "notices.edit_locked"
	NoticeHistoryNotFound   = "notices.history_not_found"
	NoticeMalformedSnapshot = "notices.malformed_snapshot"
	NoticePushFailed        = "notices.push_failed"
	NoticeBatchApplied      = "notices.batch_applied"
	NoticeFailed            = "notices.failed"
)

var errorNotices = []struct {
	err   error
	key   string
	level Level
}{
	{model.ErrNotConnected, NoticeNotConnected, LevelError},
	{model.ErrPushQueueFull, NoticeNotConnected, LevelError},
	{model.ErrPlayerNotFound, NoticePlayerNotFound, LevelWarn},
	{model.ErrItemNotFound, NoticeItemNotFound, LevelWarn},
	{model.ErrDuplicatePlayer, NoticeDuplicatePlayer, LevelWarn},
	{model.ErrInvalidPlayerName, NoticeInvalidName, LevelWarn},
	{model.ErrInvalidIndex, NoticeInvalidIndex, LevelWarn},
	{model.ErrEditLocked, NoticeEditLocked, LevelWarn},
	{model.ErrHistoryNotFound, NoticeHistoryNotFound, LevelWarn},
	{model.ErrMalformedSnapshot, NoticeMalformedSnapshot, LevelWarn},
}

// noticeFor turns an operation error on target into a notice
func noticeFor(cat *msgcat.Catalog, err error, target string) Notice {
	data := map[string]any{"Target": target, "Reason": err.Error()}
	for _, en := range errorNotices {
		if errors.Is(err, en.err) {
			return Notice{Level: en.level, Key: en.key, Text: cat.Text(en.key, data), Err: err}
		}
	}
	return Notice{Level: LevelError, Key: NoticeFailed, Text: cat.Text(NoticeFailed, data), Err: err}
}

func info(cat *msgcat.Catalog, key string, data any) Notice {
	return Notice{Level: LevelInfo, Key: key, Text: cat.Text(key, data)}
}
