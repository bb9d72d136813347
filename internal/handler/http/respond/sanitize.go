package respond

import (
	"regexp"
)

var (
	// Webhook URL パターン（パスに署名トークンが含まれる）
	slackWebhookPattern   = regexp.MustCompile(`https://hooks\.slack\.com/services/[A-Za-z0-9/_-]+`)
	discordWebhookPattern = regexp.MustCompile(`https://discord(?:app)?\.com/api/webhooks/[A-Za-z0-9/_-]+`)

	// Bearer トークンパターン
	bearerTokenPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/-]+=*`)

	// データベースパスワードパターン（DSN内）
	dbPasswordPattern = regexp.MustCompile(`://([^:@/\s]+):([^@\s]+)@`)
)

// SanitizeError は機密情報をマスクしたエラーメッセージを返す
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()

	// Webhook URL のマスク（通知送信エラーに URL がそのまま載る）
	msg = slackWebhookPattern.ReplaceAllString(msg, "https://hooks.slack.com/services/****")
	msg = discordWebhookPattern.ReplaceAllString(msg, "https://discord.com/api/webhooks/****")

	// 認可トークンのマスク
	msg = bearerTokenPattern.ReplaceAllString(msg, "Bearer ****")

	// DBパスワードのマスク
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")

	return msg
}
