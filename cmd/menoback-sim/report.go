package main

import (
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/plus3/menoback/game"
	"github.com/plus3/menoback/nback"
)

type Report struct {
	// Configuration
	Duration int
	Stimuli  string
	Accuracy float64
	Think    int
	Seed     uint64
	Climb    bool

	// Results
	Games       []GameRow
	GamesPlayed int
	WallTime    time.Duration
	Pipeline    game.PipelineStats
}

type GameRow struct {
	Number    int
	Result    game.Result
	Shape     nback.MatchStats
	Color     nback.MatchStats
	HasShape  bool
	HasColor  bool
	NextLevel int
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# menoback Simulation Report

## Configuration
- **Game Duration:** {{.Duration}}s
- **Stimuli:** {{.Stimuli}}
- **Player Accuracy:** {{pct .Accuracy}}
- **Think Time:** {{.Think}}s per piece
- **Seed:** {{.Seed}}
- **Climb Levels:** {{.Climb}}

## Games
| # | Level | Cause | Score | Pieces | Lines | Accuracy | Max Streak | High Score | Unlocked |
|---|-------|-------|-------|--------|-------|----------|------------|------------|----------|
{{- range .Games}}
| {{.Number}} | {{.Result.Stimuli.Level}} | {{.Result.Cause}} | {{.Result.Score}} | {{.Result.Pieces}} | {{.Result.Lines}} | {{.Result.Stats.FormatAccuracy}} | {{.Result.MaxStreak}} | {{if .Result.NewHighScore}}new{{else}}-{{end}} | {{if .Result.LevelUnlocked}}{{.NextLevel}}-back{{else}}-{{end}} |
{{- end}}

{{range .Games}}
### Game {{.Number}}
{{- if .HasShape}}
- shape: {{.Shape.FormatAccuracy}} ({{.Shape.CorrectMatches}} hits, {{.Shape.CorrectNonMatches}} rejections, {{.Shape.IncorrectMatches}} false alarms, {{.Shape.MissedMatches}} misses)
{{- end}}
{{- if .HasColor}}
- color: {{.Color.FormatAccuracy}} ({{.Color.CorrectMatches}} hits, {{.Color.CorrectNonMatches}} rejections, {{.Color.IncorrectMatches}} false alarms, {{.Color.MissedMatches}} misses)
{{- end}}
{{end}}
## Descent Pipeline
- **Total Executions:** {{.Pipeline.TotalExecutions}}

| System | Calls | Avg | Min | Max |
|--------|-------|-----|-----|-----|
{{- range .Pipeline.Systems}}
| {{.Name}} | {{.ExecutionCount}} | {{us .AvgDuration}} | {{us .MinDuration}} | {{us .MaxDuration}} |
{{- end}}

- **Games Recorded In Store:** {{.GamesPlayed}}
- **Wall Time:** {{.WallTime}}
`

	fm := template.FuncMap{
		"pct": func(v float64) string {
			return fmt.Sprintf("%.0f%%", v*100)
		},
		"us": func(d time.Duration) string {
			return fmt.Sprintf("%.1fus", float64(d)/float64(time.Microsecond))
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
