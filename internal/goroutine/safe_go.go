// Package goroutine запускает фоновые задачи так, что паника пишется в лог и не роняет процесс.
package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/workfolio-backend/internal/logger"
)

// Go запускает fn в отдельной горутине. name попадает в лог вместе со стеком паники.
func Go(name string, fn func()) {
	go func() {
		defer Recover(name)
		fn()
	}()
}

// GoContext запускает fn с контекстом в отдельной горутине.
func GoContext(ctx context.Context, name string, fn func(context.Context)) {
	go func() {
		defer Recover(name)
		fn(ctx)
	}()
}

// Recover гасит панику текущей горутины и пишет её в лог.
// Вызывается только через defer: defer goroutine.Recover("ws.readPump").
func Recover(name string) {
	r := recover()
	if r == nil {
		return
	}
	logger.L().WithFields(logrus.Fields{
		"goroutine": name,
		"panic":     r,
		"stack":     string(debug.Stack()),
	}).Error("goroutine: паника перехвачена")
}
