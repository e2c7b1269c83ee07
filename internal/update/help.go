package update

import "github.com/sandeepkv93/tasklist/internal/views"

const helpMarkdown = `# tasklist

Tasks are kept in the order they were added.

- **a** opens the *New Task* prompt; **enter** adds, **esc** cancels
- **space** or **x** checks the selected task, which removes it from the list
- **/** runs a command: ` + "`add <title>`" + ` or ` + "`done <row>`" + `
`

func (m Model) renderHelpView() string {
	return views.RenderHelpPanel(helpMarkdown, m.helpModel.FullHelpView(m.Keys.FullHelp()))
}
