package main

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/audionav/govorun/internal/device"
	"github.com/audionav/govorun/internal/menu"
	"github.com/audionav/govorun/internal/settings"
	"github.com/audionav/govorun/internal/speech"
)

const (
	emptyStorageLabel = "Нет подключенных устройств"
	errorCueLabel     = "Произошла ошибка"
)

// deviceLister is the slice of the watcher the menu needs: the current
// authoritative attached set.
type deviceLister interface {
	Devices() []device.Device
}

// buildMenu assembles the device's static tree. The external-storage
// submenu is the only dynamic part; everything else is fixed at startup.
func buildMenu(devices deviceLister, sets *settings.Settings, logger *log.Logger) *menu.Node {
	dictaphone := menu.NewSubmenu("dictaphone", "Режим диктофона",
		folderSubmenu("record", "Создать новую запись", logger),
		folderSubmenu("play", "Воспроизвести уже имеющуюся запись", logger),
		folderSubmenu("delete", "Удалить запись", logger),
	)

	call := menu.NewSubmenu("call", "Режим звонка",
		menu.NewSubmenu("accept", "Принять звонок",
			menu.NewLeaf("yes", "Да", nil),
			menu.NewLeaf("no", "Нет", nil),
		),
		menu.NewSubmenu("make", "Совершить звонок",
			menu.NewSubmenu("favorites", "Избранные контакты",
				menu.NewLeaf("add", "Добавить избранный контакт", nil),
				menu.NewLeaf("remove", "Удалить избранный контакт", nil),
			),
			menu.NewSubmenu("recent", "Последние набранные"),
		),
	)

	radio := menu.NewSubmenu("radio", "Режим управления радио")
	for i, station := range []string{"Юмор", "Наука", "Политика", "Природа"} {
		radio.Children = append(radio.Children, menu.NewSubmenu(
			fmt.Sprintf("station-%d", i+1),
			"Радиостанция "+station,
			menu.NewLeaf("now-playing", "Что сейчас звучит?", nil),
			menu.NewLeaf("restart", "Начать текущую композицию с начала", nil),
			menu.NewLeaf("prev", "Переключить на предыдущую композицию", nil),
			menu.NewLeaf("next", "Переключить на следующую композицию", nil),
		))
	}

	storage := menu.NewDeviceMenu("storage", "Внешний носитель", emptyStorageLabel,
		func() []*menu.Node {
			var out []*menu.Node
			for _, d := range devices.Devices() {
				d := d
				out = append(out, menu.NewLeaf(d.ID, d.SpokenLabel(), func() error {
					logger.Info("storage selected", "id", d.ID, "mount", d.MountPath)
					return nil
				}))
			}
			return out
		})

	return menu.NewSubmenu("", "Главное меню",
		dictaphone,
		call,
		radio,
		storage,
		settingsSubmenu(sets, logger),
	)
}

// folderSubmenu mirrors the recorder's fixed folder layout.
func folderSubmenu(name, label string, logger *log.Logger) *menu.Node {
	folder := func(suffix string) *menu.Node {
		return menu.NewLeaf("folder-"+suffix, "Папка "+suffix, func() error {
			logger.Info("folder selected", "menu", name, "folder", suffix)
			return nil
		})
	}
	return menu.NewSubmenu(name, label, folder("A"), folder("B"), folder("C"))
}

// settingsSubmenu exposes the persisted voice and engine pickers. A leaf
// action writes straight through to the settings file; the change takes
// full effect after restart, when the chain and cache keys are rebuilt.
func settingsSubmenu(sets *settings.Settings, logger *log.Logger) *menu.Node {
	voices := menu.NewSubmenu("voice", "Выбор голоса")
	for _, v := range speech.AvailableVoices() {
		v := v
		voices.Children = append(voices.Children, menu.NewLeaf(v.ID, v.Name, func() error {
			if err := sets.SetVoice(v.ID); err != nil {
				return err
			}
			logger.Info("voice changed", "voice", v.ID)
			return nil
		}))
	}

	engines := menu.NewSubmenu("engine", "Выбор синтезатора")
	for _, e := range []struct{ id, label string }{
		{"google", "Гугл облако"},
		{"gtts", "Гугл бесплатный"},
		{"espeak", "Автономный"},
	} {
		e := e
		engines.Children = append(engines.Children, menu.NewLeaf(e.id, e.label, func() error {
			if err := sets.SetEngine(e.id); err != nil {
				return err
			}
			logger.Info("engine changed", "engine", e.id)
			return nil
		}))
	}

	return menu.NewSubmenu("settings", "Настройки", voices, engines)
}
