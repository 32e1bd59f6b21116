package db

import (
	"database/sql"
	"fmt"
)

// SeedFixtures populates the plots table with development fixtures covering
// every plot database status. Existing rows with the same ids are replaced.
func SeedFixtures(database *sql.DB) error {
	plots := []struct {
		id                         int
		ownerUUID, name, discordID string
		city, country              string
		x, z                       float64
		status                     string
	}{
		{1, "3f2a1c9e-0000-4000-8000-000000000001", "Alex", "", "Berlin", "Germany", 1024.5, -2048, "unclaimed"},
		{7, "3f2a1c9e-0000-4000-8000-000000000007", "Sam", "111111111111111111", "Lisbon", "Portugal", -512, 300.25, "unfinished"},
		{42, "3f2a1c9e-0000-4000-8000-000000000042", "Robin", "222222222222222222", "Osaka", "Japan", 88, 99, "unreviewed"},
		{99, "3f2a1c9e-0000-4000-8000-000000000099", "Kai", "", "Quito", "Ecuador", 0, 0, "completed"},
	}
	for _, p := range plots {
		var discordID sql.NullString
		if p.discordID != "" {
			discordID = sql.NullString{String: p.discordID, Valid: true}
		}
		if _, err := database.Exec(
			"DELETE FROM plots WHERE id = ?", p.id,
		); err != nil {
			return fmt.Errorf("seed plots: %w", err)
		}
		if _, err := database.Exec(
			"INSERT INTO plots (id, owner_uuid, owner_name, owner_discord_id, city, country, x, z, status) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			p.id, p.ownerUUID, p.name, discordID, p.city, p.country, p.x, p.z, p.status,
		); err != nil {
			return fmt.Errorf("seed plots: %w", err)
		}
	}
	return nil
}
