package mysql

// InsertUserLog records a user-facing account event
func InsertUserLog(userID int64, callID string, event string, message string) error {
	insertQuery := "INSERT INTO user_logs (`user_id`, `call_id`, `event`, `message`, `created_time`) VALUES (?, ?, ?, ?, NOW())"
	insStmt, err := dbConn.Prepare(insertQuery)
	if err != nil {
		return err
	}
	defer insStmt.Close()
	_, err = insStmt.Exec(userID, callID, event, message)
	if err != nil {
		return err
	}
	return nil
}
