package edit

// Action is one of the fixed floating-toolbar edit actions.
type Action string

const (
	ActionShorten      Action = "shorten"
	ActionExpand       Action = "expand"
	ActionConvertTable Action = "convert_to_table"
	ActionImproveStyle Action = "improve_style"
	ActionGeneralEdit  Action = "general_edit"
)

// Actions lists the supported edit actions.
var Actions = []Action{
	ActionShorten,
	ActionExpand,
	ActionConvertTable,
	ActionImproveStyle,
	ActionGeneralEdit,
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionShorten, ActionExpand, ActionConvertTable, ActionImproveStyle, ActionGeneralEdit:
		return true
	}
	return false
}

// BuildPrompt maps (action, text) to the instruction sent to the completion
// provider. Each action has exactly one template; same inputs always produce
// the same string.
func BuildPrompt(action Action, text string) string {
	switch action {
	case ActionShorten:
		return `Please shorten the following text while keeping the main points: "` + text + `"`
	case ActionExpand:
		return `Please expand the following text with more details and examples: "` + text + `"`
	case ActionConvertTable:
		return `Convert the following text into a well-formatted table: "` + text + `"`
	case ActionImproveStyle:
		return `Improve the writing style and flow of the following text: "` + text + `"`
	case ActionGeneralEdit:
		return `Please edit and improve the following text: "` + text + `"`
	default:
		return `Please improve the following text: "` + text + `"`
	}
}
