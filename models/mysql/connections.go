package mysql

import (
	"database/sql"

	"bitbucket.org/yellowmessenger/callcontrol-ari/configmanager"

	_ "github.com/go-sql-driver/mysql"
)

var dbConn *sql.DB

// Ping reports whether the database connection is alive
func Ping() error {
	return dbConn.Ping()
}

// Init initializes the MySQL connection
func Init() error {
	var err error
	dbConn, err = sql.Open("mysql", configmanager.ConfStore.MySQLUser+":"+configmanager.ConfStore.MySQLPassword+"@/"+configmanager.ConfStore.MySQLDB+"?parseTime=true")
	if err != nil {
		return err
	}
	dbConn.SetMaxOpenConns(100)
	return nil
}
