package data

// Schema statements run in order on Init. Types are chosen to behave the
// same under sqlite affinity rules and postgres: TEXT/INTEGER everywhere,
// DOUBLE PRECISION for rates so postgres keeps full float64 width.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version    INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS game_log (
		team             TEXT NOT NULL,
		season           INTEGER NOT NULL,
		game_date        TEXT NOT NULL,
		opponent         TEXT NOT NULL,
		home             INTEGER NOT NULL,
		minutes          INTEGER NOT NULL DEFAULT 240,
		fg2a             INTEGER NOT NULL,
		fg2m             INTEGER NOT NULL,
		fg3a             INTEGER NOT NULL,
		fg3m             INTEGER NOT NULL,
		fta              INTEGER NOT NULL,
		ftm              INTEGER NOT NULL,
		oreb             INTEGER NOT NULL,
		dreb             INTEGER NOT NULL,
		tov              INTEGER NOT NULL,
		pace             DOUBLE PRECISION NOT NULL,
		ortg             DOUBLE PRECISION NOT NULL DEFAULT 0,
		drtg             DOUBLE PRECISION NOT NULL DEFAULT 0,
		points           INTEGER NOT NULL,
		opp_points       INTEGER NOT NULL,
		opp_def_rank     INTEGER,
		opp_fg3_def_rank INTEGER,
		opp_pace         DOUBLE PRECISION,
		PRIMARY KEY (team, season, game_date, opponent)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_game_log_team_date
		ON game_log (team, season, game_date)`,

	`CREATE INDEX IF NOT EXISTS idx_game_log_opponent
		ON game_log (season, opponent)`,

	`CREATE TABLE IF NOT EXISTS team_season (
		team           TEXT NOT NULL,
		season         INTEGER NOT NULL,
		split          TEXT NOT NULL,
		games          INTEGER NOT NULL,
		win_pct        DOUBLE PRECISION NOT NULL,
		ppg            DOUBLE PRECISION NOT NULL,
		opp_ppg        DOUBLE PRECISION NOT NULL,
		pace           DOUBLE PRECISION NOT NULL,
		ortg           DOUBLE PRECISION NOT NULL,
		drtg           DOUBLE PRECISION NOT NULL,
		fg2_pct        DOUBLE PRECISION NOT NULL,
		fg3_pct        DOUBLE PRECISION NOT NULL,
		ft_pct         DOUBLE PRECISION NOT NULL,
		fg2a_pg        DOUBLE PRECISION NOT NULL,
		fg3a_pg        DOUBLE PRECISION NOT NULL,
		fta_pg         DOUBLE PRECISION NOT NULL,
		two_pt_share   DOUBLE PRECISION NOT NULL,
		three_pt_share DOUBLE PRECISION NOT NULL,
		ft_share       DOUBLE PRECISION NOT NULL,
		tov_pg         DOUBLE PRECISION NOT NULL,
		tov_pct        DOUBLE PRECISION NOT NULL,
		oreb_pct       DOUBLE PRECISION NOT NULL,
		ft_rate        DOUBLE PRECISION NOT NULL,
		opp_fg2_pct    DOUBLE PRECISION NOT NULL,
		opp_fg3_pct    DOUBLE PRECISION NOT NULL,
		opp_tov_pct    DOUBLE PRECISION NOT NULL,
		opp_oreb_pct   DOUBLE PRECISION NOT NULL,
		opp_ft_rate    DOUBLE PRECISION NOT NULL,
		def_rank       INTEGER NOT NULL DEFAULT 0,
		fg3_def_rank   INTEGER NOT NULL DEFAULT 0,
		updated_at     TEXT NOT NULL,
		PRIMARY KEY (team, season, split)
	)`,

	`CREATE TABLE IF NOT EXISTS coefficient_set (
		id              TEXT PRIMARY KEY,
		season          INTEGER NOT NULL,
		version         INTEGER NOT NULL,
		a2              DOUBLE PRECISION NOT NULL,
		b2              DOUBLE PRECISION NOT NULL,
		a3              DOUBLE PRECISION NOT NULL,
		b3              DOUBLE PRECISION NOT NULL,
		ft_poss_weight  DOUBLE PRECISION NOT NULL,
		tov_team_weight DOUBLE PRECISION NOT NULL,
		tov_opp_weight  DOUBLE PRECISION NOT NULL,
		trained_from    TEXT NOT NULL,
		trained_to      TEXT NOT NULL,
		games           INTEGER NOT NULL,
		r2_shooting2    DOUBLE PRECISION NOT NULL,
		r2_shooting3    DOUBLE PRECISION NOT NULL,
		r2_possession   DOUBLE PRECISION NOT NULL,
		is_active       INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL,
		UNIQUE (season, version)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_coefficient_set_active
		ON coefficient_set (season, is_active)`,

	`INSERT INTO schema_version (version) VALUES (1)
		ON CONFLICT (version) DO NOTHING`,
}
