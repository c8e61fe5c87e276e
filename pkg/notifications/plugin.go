package notifications

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/nicholas-fedor/taskhooks/pkg/entrypoint"
	"github.com/nicholas-fedor/taskhooks/pkg/plugin"
)

// Module is the module name the plugin is linked in under.
const Module = "taskhooks.notifications"

// Configuration keys read by Load.
const (
	URLKey      = "TASKHOOKS_NOTIFICATION_URL"
	TitleKey    = "TASKHOOKS_NOTIFICATION_TITLE"
	TemplateKey = "TASKHOOKS_NOTIFICATION_TEMPLATE"
	LevelKey    = "TASKHOOKS_NOTIFICATIONS_LEVEL"
)

func init() {
	entrypoint.Provide(Module, Load)
	entrypoint.MustDeclare(entrypoint.EntryPoint{
		Group:  entrypoint.DefaultHookGroup,
		Name:   "notifications",
		Module: Module,
	})
}

// Load registers a notifier when notification URLs are configured.
// The notifier is also added as a hook of the standard logger.
func Load(pm *plugin.Manager) error {
	urls := viper.GetStringSlice(URLKey)
	if len(urls) == 0 {
		return nil
	}

	level, err := logrus.ParseLevel(viper.GetString(LevelKey))
	if err != nil {
		level = logrus.InfoLevel
	}

	hostname, _ := os.Hostname()

	notifier, err := NewNotifier(urls, StaticData{
		Host:  hostname,
		Title: GetTitle(hostname, viper.GetString(TitleKey)),
	}, viper.GetString(TemplateKey), level)
	if err != nil {
		return err
	}

	if err := pm.RegisterPlugin(notifier); err != nil {
		return err
	}

	logrus.AddHook(notifier)

	LocalLog.WithField("services", notifier.GetNames()).Debug("Registered notifications")

	return nil
}

// GetTitle formats the title based on the passed hostname and tag.
func GetTitle(hostname string, tag string) string {
	titleBuilder := strings.Builder{}
	if tag != "" {
		titleBuilder.WriteRune('[')
		titleBuilder.WriteString(tag)
		titleBuilder.WriteRune(']')
		titleBuilder.WriteRune(' ')
	}

	titleBuilder.WriteString("Task report")

	if hostname != "" {
		titleBuilder.WriteString(" on ")
		titleBuilder.WriteString(hostname)
	}

	return titleBuilder.String()
}
