package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Hats table - the catalog of overlay props the presentation
		// layer can render. Geometry tuning lives per hat so new hats
		// don't require code changes.
		`CREATE TABLE IF NOT EXISTS hats (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			image_url TEXT NOT NULL,
			width_factor REAL NOT NULL DEFAULT 1.5,
			tilt_deg REAL NOT NULL DEFAULT -15.0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
