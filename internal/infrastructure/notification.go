package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/yourusername/showcase-dl/internal/domain"
	"go.uber.org/zap"
)

const appName = "showcase-dl"

// NotificationService sends desktop notifications about finished downloads
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    func(name string, args ...string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// Send sends a notification with the configured method
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		return nil
	}

	var name string
	var args []string
	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %s with title %s`, appleScriptString(message), appleScriptString(title))
		name, args = "osascript", []string{"-e", script}
	case "notify-send":
		name, args = "notify-send", []string{"--app-name", appName, title, message}
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err := n.run(name, args...); err != nil {
		n.logger.Warn("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifyVideoFinished implements domain.Notifier
func (n *NotificationService) NotifyVideoFinished(video *domain.Video) {
	message := truncateString(video.DisplayName(), 60)
	if file := video.OutputFile(); file != "" {
		message = fmt.Sprintf("%s\n%s", message, file)
	}
	n.Send("Download finished", message)
}

// NotifyVideoFailed implements domain.Notifier
func (n *NotificationService) NotifyVideoFailed(video *domain.Video, reason error) {
	message := truncateString(video.DisplayName(), 60)
	if reason != nil {
		message = fmt.Sprintf("%s\n%v", message, reason)
	}
	n.Send("Download failed", message)
}

// appleScriptString quotes s as an AppleScript string literal
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// truncateString truncates a string to maxLen runes
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
