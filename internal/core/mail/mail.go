// Package mail 发信抽象；默认实现只写日志，接入 SMTP/第三方时替换 Mailer 即可。
package mail

import (
	"context"

	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// LogMailer 开发环境用：正文含重置链接，只打 debug 级别
type LogMailer struct{ Log *zap.Logger }

func (m LogMailer) Send(_ context.Context, msg Message) error {
	m.Log.Info("mail queued", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	m.Log.Debug("mail body", zap.String("body", msg.Body))
	return nil
}
