package database

type Config struct {
	// Path to the bbolt database file
	FilePath string `envconfig:"PADEL_DB_FILE_PATH" default:"padelbot.db"`
}
