package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Required and optional game log CSV columns. Matching is by header
// name, so column order does not matter.
var (
	csvRequired = []string{
		"team", "season", "game_date", "opponent", "home",
		"fg2a", "fg2m", "fg3a", "fg3m", "fta", "ftm",
		"oreb", "dreb", "tov", "pace", "points", "opp_points",
	}
	csvOptional = []string{"minutes", "ortg", "drtg"}
)

// CSVResult carries the parsed logs plus per-row parse rejections.
type CSVResult struct {
	Logs     []*GameLog
	Rejected []string
}

// ParseGameLogCSV reads game logs from CSV with a header row. Rows that
// fail to parse are rejected with their line number; a malformed header
// or unreadable stream fails the whole parse.
func ParseGameLogCSV(r io.Reader) (*CSVResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, col := range csvRequired {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv header missing columns: %s", strings.Join(missing, ", "))
	}

	res := &CSVResult{}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		gl, err := parseGameLogRow(idx, rec)
		if err != nil {
			res.Rejected = append(res.Rejected, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		res.Logs = append(res.Logs, gl)
	}

	return res, nil
}

// fieldParser pulls typed values out of one record, keeping the first
// error it hits so callers check once.
type fieldParser struct {
	idx map[string]int
	rec []string
	err error
}

func (p *fieldParser) str(col string) string {
	i, ok := p.idx[col]
	if !ok || i >= len(p.rec) {
		return ""
	}
	return strings.TrimSpace(p.rec[i])
}

func (p *fieldParser) intCol(col string, def int) int {
	if p.err != nil {
		return 0
	}
	v := p.str(col)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s %q", col, v)
	}
	return n
}

func (p *fieldParser) floatCol(col string, def float64) float64 {
	if p.err != nil {
		return 0
	}
	v := p.str(col)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.err = fmt.Errorf("invalid %s %q", col, v)
	}
	return f
}

func (p *fieldParser) boolCol(col string) bool {
	if p.err != nil {
		return false
	}
	v := p.str(col)
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s %q", col, v)
	}
	return b
}

func parseGameLogRow(idx map[string]int, rec []string) (*GameLog, error) {
	p := &fieldParser{idx: idx, rec: rec}

	gl := &GameLog{
		Team:      p.str("team"),
		Season:    p.intCol("season", 0),
		GameDate:  p.str("game_date"),
		Opponent:  p.str("opponent"),
		Home:      p.boolCol("home"),
		Minutes:   p.intCol("minutes", regulationMinutes),
		FG2A:      p.intCol("fg2a", 0),
		FG2M:      p.intCol("fg2m", 0),
		FG3A:      p.intCol("fg3a", 0),
		FG3M:      p.intCol("fg3m", 0),
		FTA:       p.intCol("fta", 0),
		FTM:       p.intCol("ftm", 0),
		OREB:      p.intCol("oreb", 0),
		DREB:      p.intCol("dreb", 0),
		TOV:       p.intCol("tov", 0),
		Pace:      p.floatCol("pace", 0),
		ORTG:      p.floatCol("ortg", 0),
		DRTG:      p.floatCol("drtg", 0),
		Points:    p.intCol("points", 0),
		OppPoints: p.intCol("opp_points", 0),
	}
	if p.err != nil {
		return nil, p.err
	}

	return gl, nil
}
