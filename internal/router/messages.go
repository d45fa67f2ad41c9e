package router

import "github.com/patric-chuzhbe/userfront/internal/settings"

type messageKey string

const (
	msgInvalidBody       messageKey = "invalid_body"
	msgInvalidID         messageKey = "invalid_id"
	msgUpstreamFailed    messageKey = "upstream_failed"
	msgUpstreamTimeout   messageKey = "upstream_timeout"
	msgUpstreamMalformed messageKey = "upstream_malformed"
	msgUnsupportedLocale messageKey = "unsupported_locale"
	msgInternal          messageKey = "internal"
)

var messages = map[string]map[messageKey]string{
	settings.LocaleZhTW: {
		msgInvalidBody:       "請求內容格式錯誤",
		msgInvalidID:         "無效的用戶 ID",
		msgUpstreamFailed:    "遠端服務回應錯誤",
		msgUpstreamTimeout:   "遠端服務逾時",
		msgUpstreamMalformed: "遠端服務回應格式錯誤",
		msgUnsupportedLocale: "不支援的語系",
		msgInternal:          "內部錯誤",
	},
	settings.LocaleEnUS: {
		msgInvalidBody:       "malformed request body",
		msgInvalidID:         "invalid user id",
		msgUpstreamFailed:    "the remote API returned an error",
		msgUpstreamTimeout:   "the remote API timed out",
		msgUpstreamMalformed: "the remote API returned a malformed response",
		msgUnsupportedLocale: "unsupported locale",
		msgInternal:          "internal error",
	},
}

func translate(locale string, key messageKey) string {
	if catalog, ok := messages[locale]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	return messages[settings.FallbackLocale][key]
}
