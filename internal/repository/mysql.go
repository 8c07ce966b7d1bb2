package repository

import "database/sql"

// NewMySQLStores wires the MySQL implementations onto one connection pool.
func NewMySQLStores(db *sql.DB) Stores {
	return Stores{
		Users:      NewUserRepo(db),
		Posts:      NewPostRepo(db),
		Education:  NewEducationRepo(db),
		Experience: NewExperienceRepo(db),
	}
}
