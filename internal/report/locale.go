package report

import "github.com/TOTORON9625/DevTodo/internal/model"

// locale holds the labels of one display language.
type locale struct {
	days     [7]string // Monday first
	statuses map[string]string
	titles   map[string]string
}

var locales = map[string]locale{
	"ja": {
		days: [7]string{"月", "火", "水", "木", "金", "土", "日"},
		statuses: map[string]string{
			model.StatusTodo:       "Todo",
			model.StatusInProgress: "進行中",
			model.StatusDone:       "完了",
			model.StatusArchived:   "アーカイブ",
		},
		titles: map[string]string{
			canvasDaily:    "日別完了タスク数",
			canvasStatus:   "ステータス分布",
			canvasProjects: "プロジェクト別完了数",
			canvasTags:     "タグ別完了数",
			canvasColors:   "色別分布",
			canvasWeeks:    "週別完了タスク数",
		},
	},
	"en": {
		days: [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
		statuses: map[string]string{
			model.StatusTodo:       "Todo",
			model.StatusInProgress: "In progress",
			model.StatusDone:       "Done",
			model.StatusArchived:   "Archived",
		},
		titles: map[string]string{
			canvasDaily:    "Completed per day",
			canvasStatus:   "Status distribution",
			canvasProjects: "Completed per project",
			canvasTags:     "Completed per tag",
			canvasColors:   "Completed per color",
			canvasWeeks:    "Completed per week",
		},
	},
}

// localeFor returns the named locale, defaulting to Japanese.
func localeFor(name string) locale {
	if l, ok := locales[name]; ok {
		return l
	}
	return locales["ja"]
}

func (l locale) status(s string) string {
	if label, ok := l.statuses[s]; ok {
		return label
	}
	return s
}
