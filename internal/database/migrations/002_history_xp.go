package migrations

func init() {
	Register(Migration{
		Version: 2,
		Name:    "history_total_xp",
		Up:      addHistoryTotalXP,
	})
}

// addHistoryTotalXP stores the XP of each run so session totals don't need
// the summary JSON.
func addHistoryTotalXP(db Execer) error {
	if err := AddColumnIfNotExists(db, "history", "total_xp", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		return err
	}
	_, err := db.Exec(`UPDATE history SET total_xp = COALESCE(json_extract(summary_json, '$.total_xp'), 0) WHERE summary_json IS NOT NULL`)
	return err
}
