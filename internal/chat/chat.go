// Package chat форматирует сообщения игрокам в разметке хоста.
package chat

import (
	"fmt"
	"strings"

	"github.com/annel0/unlimited-mining/internal/economy"
	"github.com/annel0/unlimited-mining/internal/voxel"
)

const (
	yellow = "ffff00"
	green  = "00ff00"
	br     = "<br>"
)

// Money форматирует сумму с двумя знаками
func Money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func dollars() string {
	return Color(green, "$")
}

// Size оборачивает текст тегом размера
func Size(size int, text string) string {
	return fmt.Sprintf(`<size="%d">%s</>`, size, text)
}

// Color оборачивает текст тегом цвета (hex без #)
func Color(hex, text string) string {
	return fmt.Sprintf(`<color="%s">%s</>`, hex, text)
}

// Bold выделяет текст
func Bold(text string) string { return "<b>" + text + "</>" }

// Italic выделяет текст курсивом
func Italic(text string) string { return "<i>" + text + "</>" }

// Underline подчёркивает текст
func Underline(text string) string { return "<u>" + text + "</>" }

// MiningProgress - сообщение по центру после удара
func MiningProgress(t *voxel.Type, hp int) string {
	display := "MINED"
	if hp > 0 {
		display = fmt.Sprint(hp)
	}
	return Size(30, Color(t.Color.Hex(), strings.ToUpper(t.Name))) + br + Bold(Size(40, display))
}

// Border - сообщение при ударе по неразрушимому вокселю
func Border() string {
	return Size(30, "BORDER") + br + Bold(Size(40, "CANNOT MINE"))
}

// Inventory - строки инвентаря игрока
func Inventory(name string, entries []economy.InventoryEntry) []string {
	lines := []string{Size(20, Bold(Underline(name + "'s Inventory:")))}
	total := 0
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("> %s - %d", Color(e.Type.Color.Hex(), Italic(e.Type.Name)), e.Amount))
		total += e.Amount
	}
	lines = append(lines, "_______________")
	lines = append(lines, fmt.Sprintf("%s - %d", Color(yellow, Italic("Total")), total))
	return lines
}

// Stats - строки статистики игрока
func Stats(s economy.Stats) []string {
	return []string{
		Size(20, Bold(Underline(s.Name + "'s Stats:"))),
		fmt.Sprintf("%s %d", Color(yellow, Italic("Pick Level:")), s.PickaxeLevel),
		fmt.Sprintf("%s %s%s", Color(yellow, Italic("Money:")), dollars(), Money(s.Money)),
		fmt.Sprintf("%s %d", Color(yellow, Italic("Mined:")), s.TotalMined),
	}
}

// Help - строки справки
func Help() []string {
	return []string{
		Size(20, Bold(Underline("Help for Unlimited Mining:"))),
		"- " + Bold("Start mining") + " by clicking bricks in the mining area.",
		"- " + Bold("Sell your resources") + " by clicking the minecart.",
		"- " + Bold("Upgrade your pick") + " by clicking the workbench.",
		"- " + Color(yellow, "/Inventory") + " " + Italic("or") + " " + Color(yellow, "/Inv") + " - View your inventory.",
		"- " + Color(yellow, "/Stats") + " - View your stats.",
		"- " + Color(yellow, "/MiningHelp") + " - Display this help again.",
		Size(15, Color(yellow, Italic("(Use "+Underline("Page Up")+" to see everything)"))),
	}
}

// InventoryEmpty - продавать нечего
func InventoryEmpty() string {
	return Size(30, "INVENTORY IS") + br + Size(40, Bold(Underline("EMPTY")))
}

func clickAgain() string {
	return Size(15, Color(yellow, Italic("Click again to confirm.")))
}

func clickToConfirm() string {
	return Size(20, Color(yellow, Italic("CLICK TO CONFIRM")))
}

// SellPrompt - первое нажатие на станцию продажи: личные строки и сообщение по центру
func SellPrompt(value float64) ([]string, string) {
	v := Money(value)
	whisper := []string{
		"Sell all resources for " + dollars() + Bold(v) + "?",
		clickAgain(),
	}
	middle := Size(40, "SELL FOR "+Bold(dollars()+v)+"?") + br + clickToConfirm()
	return whisper, middle
}

// Sold - итог продажи
func Sold(value float64) (string, string) {
	v := Money(value)
	whisper := "Sold all resources for " + dollars() + v + "."
	middle := Size(30, "SOLD FOR") + br + Size(40, Bold(dollars()+v))
	return whisper, middle
}

// CannotUpgrade - не хватает денег на улучшение
func CannotUpgrade(shortfall float64) string {
	return Size(40, Bold(Underline("CANNOT UPGRADE"))) + br + Size(30, "NEED "+dollars()+Money(shortfall))
}

// UpgradePrompt - первое нажатие на станцию улучшения
func UpgradePrompt(cost float64) ([]string, string) {
	v := Money(cost)
	whisper := []string{
		"Upgrade pickaxe for " + dollars() + Bold(v) + "?",
		clickAgain(),
	}
	middle := Size(40, "UPGRADE FOR "+Bold(dollars()+v)+"?") + br + clickToConfirm()
	return whisper, middle
}

// Upgraded - итог улучшения
func Upgraded(level int, cost float64) (string, string) {
	whisper := fmt.Sprintf("Upgraded pickaxe to level %s for %s%s.", Color(yellow, Bold(fmt.Sprint(level))), dollars(), Money(cost))
	middle := Size(30, Bold("PICKAXE LEVEL")) + br + Size(40, Bold("《 "+Color(yellow, fmt.Sprint(level))+" 》"))
	return whisper, middle
}

// MineStatus - строка состояния шахты для администратора
func MineStatus(created bool, voxels int) string {
	if !created {
		return Color(yellow, "The mine is not created.")
	}
	return fmt.Sprintf("%s %d voxels", Color(yellow, Italic("Mine:")), voxels)
}

// Notice - короткое уведомление команды
func Notice(text string) string {
	return Color(yellow, text)
}
