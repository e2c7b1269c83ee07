package views

import (
	"fmt"
	"strings"
)

type PromptData struct {
	Title     string
	InputView string
	Confirm   string
	Cancel    string
}

// RenderPrompt draws the modal used to name a new task.
func RenderPrompt(data PromptData) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(data.Title) + "\n")
	b.WriteString(data.InputView + "\n")
	b.WriteString(hintStyle.Render(fmt.Sprintf("[enter] %s  [esc] %s", data.Confirm, data.Cancel)))
	return b.String()
}

func RenderCommandPalette(active bool, inputView string) string {
	if !active {
		return ""
	}
	var b strings.Builder
	b.WriteString("command:\n")
	b.WriteString(inputView + "\n")
	b.WriteString(hintStyle.Render("add <title> | done <row>"))
	return b.String()
}

func RenderHelpPanel(markdown, keysView string) string {
	body := RenderMarkdown(markdown)
	if keysView == "" {
		return body
	}
	return strings.TrimSpace(body + "\n\n" + keysView)
}

func RenderEmptyList() string {
	return hintStyle.Render("No tasks yet. Press a to add one.")
}
