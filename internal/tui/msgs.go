package tui

import (
	"github.com/jaekwang-park/listo/internal/model"
	"github.com/jaekwang-park/listo/internal/service"
)

type listsLoadedMsg struct {
	own    []model.Checklist
	shared []model.Checklist
	err    error
}

type checklistCreatedMsg struct {
	checklist model.Checklist
	err       error
}

type checklistRemovedMsg struct {
	err error
}

type joinedMsg struct {
	code string
	err  error
}

type editorLoadedMsg struct {
	editor *service.Editor
	err    error
}

// editorEventMsg carries a callback from an editor's background work.
type editorEventMsg struct {
	editor *service.Editor
	err    error
}

type actionDoneMsg struct {
	err error
	// leave returns to the overview once the action succeeded.
	leave bool
}

type shareReadyMsg struct {
	link   string
	copied bool
	err    error
}

type loggedInMsg struct {
	out service.LoginOutput
	err error
}

type flashDoneMsg struct {
	seq int
}
