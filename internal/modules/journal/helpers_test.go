package journal

import "github.com/nerrad567/hap-engine/internal/infrastructure/database"

func openForRead(path string) (*database.DB, error) {
	return database.Open(database.Config{Path: path})
}
